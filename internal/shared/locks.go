package shared

import "fmt"

// JobLockKey builds redis keys guarding singleton background job runs.
func JobLockKey(job string) string {
	return fmt.Sprintf("orbit:jobs:%s:lock", job)
}
