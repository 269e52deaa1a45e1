package authflow

// Reason classifies why an operation did not succeed.
type Reason string

const (
	ReasonInvalidCredentials  Reason = "invalid_credentials"
	ReasonNeedsVerification   Reason = "needs_verification"
	ReasonRequiresMFA         Reason = "requires_mfa"
	ReasonInvalidMFACode      Reason = "invalid_mfa_code"
	ReasonInvalidRecoveryCode Reason = "invalid_recovery_code"
	ReasonMalformedInput      Reason = "malformed_input"
	ReasonUpstreamUnavailable Reason = "upstream_unavailable"
	ReasonNotAuthenticated    Reason = "not_authenticated"
	ReasonChallengeExpired    Reason = "challenge_expired"
	ReasonAlreadyRegistered   Reason = "already_registered"
)

var defaultMessages = map[Reason]string{
	ReasonInvalidCredentials:  "Invalid email or password.",
	ReasonNeedsVerification:   "Please confirm your email address before signing in.",
	ReasonRequiresMFA:         "Enter the code from your authenticator app.",
	ReasonInvalidMFACode:      "The verification code is not valid.",
	ReasonInvalidRecoveryCode: "The recovery code is not valid or has already been used.",
	ReasonMalformedInput:      "The request is incomplete or badly formatted.",
	ReasonUpstreamUnavailable: "The authentication service is unavailable. Please try again.",
	ReasonNotAuthenticated:    "You need to be signed in to do that.",
	ReasonChallengeExpired:    "This sign-in attempt has expired. Please sign in again.",
	ReasonAlreadyRegistered:   "An account with this email already exists.",
}

// ErrorInfo describes a failed operation. Message is always safe to show to
// the end user.
type ErrorInfo struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

func (e *ErrorInfo) Error() string {
	return string(e.Reason) + ": " + e.Message
}

// Result is the outcome shared by every Orchestrator operation. Expected
// failures are reported through Error and never as a Go error.
type Result struct {
	Success bool       `json:"success"`
	Error   *ErrorInfo `json:"error"`
}

// Is reports whether the result failed for the given reason.
func (r Result) Is(reason Reason) bool {
	return r.Error != nil && r.Error.Reason == reason
}

// SignInResult is returned by SignIn.
type SignInResult struct {
	Result
	RequiresMFA       bool   `json:"requires_mfa,omitempty"`
	NeedsVerification bool   `json:"needs_verification,omitempty"`
	Ticket            string `json:"ticket,omitempty"`
}

// SignUpResult is returned by SignUp. ProfileError is set when the identity
// was created but the profile row was not.
type SignUpResult struct {
	Result
	Identity          *Identity  `json:"identity,omitempty"`
	NeedsVerification bool       `json:"needs_verification,omitempty"`
	ProfileError      *ErrorInfo `json:"profile_error,omitempty"`
}

// SetupResult is returned by SetupMFA.
type SetupResult struct {
	Result
	URI           string   `json:"uri,omitempty"`
	Secret        string   `json:"secret,omitempty"`
	RecoveryCodes []string `json:"recovery_codes,omitempty"`
}

// RecoveryCodesResult carries the unconsumed recovery codes.
type RecoveryCodesResult struct {
	Result
	RecoveryCodes []string `json:"recovery_codes,omitempty"`
}

func succeeded() Result {
	return Result{Success: true}
}

func failed(reason Reason) Result {
	return Result{Error: newErrorInfo(reason, "")}
}

func failedWith(reason Reason, msg string) Result {
	return Result{Error: newErrorInfo(reason, msg)}
}

func newErrorInfo(reason Reason, msg string) *ErrorInfo {
	if msg == "" {
		msg = defaultMessages[reason]
	}
	return &ErrorInfo{Reason: reason, Message: msg}
}
