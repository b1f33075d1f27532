package shared

import "fmt"

// LocationGenerationLockKey guards concurrent registry generation runs.
const LocationGenerationLockKey = "stockgrid:locations:generate:lock"

// RequestKey builds the redis key used to deduplicate a submitted form.
func RequestKey(scope, key string) string {
	return fmt.Sprintf("stockgrid:request:%s:%s", scope, key)
}
