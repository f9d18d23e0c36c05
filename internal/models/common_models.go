package models

// StringPtr returns a pointer to s, or nil when s is empty. Used when mapping
// optional request fields into nullable model fields.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
