package orchestration

import (
	"encoding/json"
	"fmt"
)

// panicSafe turns a panic inside run into an error so a single bad turn
// cannot take the call down.
func panicSafe(name string, run func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%s panicked: %v", name, recovered)
		}
	}()

	if err = run(); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

// matchedService pulls the service key out of a match_service_to_need
// result, or returns "" if there is none.
func matchedService(output string) string {
	var payload struct {
		MatchedService string `json:"matched_service"`
	}
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		return ""
	}
	return payload.MatchedService
}
