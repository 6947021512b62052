// Package validation holds the whitelist rules applied to every form field
// before it reaches the services.
package validation

import (
	"regexp"
	"strings"
)

var (
	fullNameRe         = regexp.MustCompile(`^[A-Za-z\s'-]{2,50}$`)
	idNumberRe         = regexp.MustCompile(`^\d{13}$`)
	accountNumberRe    = regexp.MustCompile(`^\d{6,12}$`)
	usernameRe         = regexp.MustCompile(`^[a-zA-Z0-9]{4,20}$`)
	passwordCharsRe    = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]{8,72}$`)
	amountRe           = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	currencyRe         = regexp.MustCompile(`^[A-Z]{3}$`)
	recipientAccountRe = regexp.MustCompile(`^\d{6,20}$`)
	swiftCodeRe        = regexp.MustCompile(`^[A-Za-z0-9]{8,11}$`)
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors collects field errors in input order.
type Errors []FieldError

func (e *Errors) check(ok bool, field, msg string) {
	if !ok {
		*e = append(*e, FieldError{Field: field, Message: msg})
	}
}

// Registration is the customer sign-up form.
type Registration struct {
	FullName      string
	IDNumber      string
	AccountNumber string
	Username      string
	Password      string
}

// ValidateRegistration returns nil when every field passes.
func ValidateRegistration(r Registration) Errors {
	var errs Errors
	errs.check(fullNameRe.MatchString(r.FullName), "fullName",
		"Full name must be 2 to 50 characters and may only contain letters, spaces, hyphens or apostrophes.")
	errs.check(idNumberRe.MatchString(r.IDNumber), "idNumber", "ID number must be exactly 13 digits.")
	errs.check(accountNumberRe.MatchString(r.AccountNumber), "accountNumber", "Account number must be 6 to 12 digits.")
	errs.check(usernameRe.MatchString(r.Username), "username", "Username must be 4 to 20 alphanumeric characters.")
	errs.check(StrongPassword(r.Password), "password",
		"Password must be 8 to 72 characters, with an uppercase, lowercase, number and symbol.")
	return errs
}

// ValidateLogin only whitelists the username; the password is never pattern-checked on login.
func ValidateLogin(username, password string) Errors {
	var errs Errors
	errs.check(usernameRe.MatchString(username), "username", "Invalid username format.")
	errs.check(password != "", "password", "Password is required.")
	return errs
}

// Payment is the customer payment form.
type Payment struct {
	Amount           string
	Currency         string
	RecipientAccount string
	SwiftCode        string
}

// ValidatePayment returns nil when every field passes.
func ValidatePayment(p Payment) Errors {
	var errs Errors
	errs.check(amountRe.MatchString(p.Amount) && !isZeroAmount(p.Amount), "amount",
		"Payment amount must be a positive number with up to 2 decimal places.")
	errs.check(currencyRe.MatchString(p.Currency), "currency", "Currency must be a 3-letter code, e.g. ZAR.")
	errs.check(recipientAccountRe.MatchString(p.RecipientAccount), "recipientAccount",
		"Recipient account number must be 6 to 20 digits.")
	errs.check(swiftCodeRe.MatchString(p.SwiftCode) && (len(p.SwiftCode) == 8 || len(p.SwiftCode) == 11), "swiftCode",
		"SWIFT code must be 8 or 11 alphanumeric characters.")
	return errs
}

// StrongPassword requires 8 to 72 characters (the bcrypt input limit) with lower,
// upper, digit and one of @$!%*?& from a fixed alphabet.
func StrongPassword(pw string) bool {
	if !passwordCharsRe.MatchString(pw) {
		return false
	}
	return strings.ContainsAny(pw, "abcdefghijklmnopqrstuvwxyz") &&
		strings.ContainsAny(pw, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") &&
		strings.ContainsAny(pw, "0123456789") &&
		strings.ContainsAny(pw, "@$!%*?&")
}

func isZeroAmount(s string) bool {
	return strings.Trim(s, "0.") == ""
}
