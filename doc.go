// StaffDesk is a staff and HR administration backend. It unifies three login
// providers (direct username/password, Microsoft OIDC and Replit OIDC) behind
// one session abstraction, resolves roles and fine-grained permissions per
// request, and gates employee-record mutations through a change-request
// approval workflow.
package main
