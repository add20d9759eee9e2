package seed

import (
	"strings"

	"github.com/coderacer/core/internal/model"
)

// Users parses "id:name,id:name". A bare id uses itself as the name; blank
// entries are skipped.
func Users(list string) []model.User {
	var users []model.User
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, name, ok := strings.Cut(entry, ":")
		id, name = strings.TrimSpace(id), strings.TrimSpace(name)
		if id == "" {
			continue
		}
		if !ok || name == "" {
			name = id
		}
		users = append(users, model.User{ID: id, Username: name})
	}
	return users
}
