package types

// redactedPlaceholder replaces secret values in logs and serialization.
const redactedPlaceholder = "***REDACTED***"

var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString is a string type that prevents accidental logging or
// serialization of sensitive values (the dedupe salt, API keys, SMTP
// credentials). It overrides String() and MarshalJSON() to return a
// redacted placeholder, so secrets never leak through fmt functions,
// structured log fields, or JSON config dumps.
//
// Use Unmask() to retrieve the raw value where it is genuinely needed
// (HMAC key material, Authorization headers, SMTP auth).
type SecretString string

// String returns a redacted placeholder instead of the raw value.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON returns the redacted placeholder as a JSON string.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// Unmask returns the raw plaintext value of the secret.
func (s SecretString) Unmask() string {
	return string(s)
}
