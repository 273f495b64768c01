// Package builtin contains the reusable movie exclusion checks.
package builtin

// RequireNonEmpty excludes a movie whose field is absent, null or the empty
// string. Other values, including 0 and false, count as present.
func RequireNonEmpty(name, field string) Exclusion {
	return Exclusion{
		Name: name,
		Match: func(movie map[string]any) bool {
			v, exists := movie[field]
			return !exists || v == nil || v == ""
		},
	}
}
