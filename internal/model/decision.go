package model

// AccessDecision is the outcome of evaluating a form's access configuration
// against the current actor. AccessAlreadyResponded is produced by the view
// flow when a prior response blocks resubmission, not by the evaluator.
type AccessDecision string

const (
	AccessAllowed AccessDecision = "allowed"

	// Recoverable: redirect to login carrying a return-to-form continuation.
	AccessRequiresLogin AccessDecision = "requires_login"

	// Recoverable: like AccessRequiresLogin, but raised at submit time when a
	// single-response form cannot accept an anonymous submission.
	AccessRequiresLoginForSingleResponse AccessDecision = "requires_login_single_response"

	// Terminal: actor is authenticated but not on the allowlist.
	AccessUnauthorized AccessDecision = "unauthorized"

	// Terminal: the deadline has passed.
	AccessClosed AccessDecision = "closed"

	// Terminal: the form is private / not published.
	AccessUnpublished AccessDecision = "unpublished"

	// Terminal: single-response form with a prior response and no edit
	// permission.
	AccessAlreadyResponded AccessDecision = "already_responded"
)

// Blocked reports whether the decision stops the viewing flow.
func (d AccessDecision) Blocked() bool {
	return d != AccessAllowed
}

// Recoverable reports whether logging in can unblock the actor.
func (d AccessDecision) Recoverable() bool {
	return d == AccessRequiresLogin || d == AccessRequiresLoginForSingleResponse
}
