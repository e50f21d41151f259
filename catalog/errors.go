package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NonFieldErrors is the key used for errors not tied to one input field.
const NonFieldErrors = "non_field_errors"

// CodeOwnershipConflict is returned to API clients when accepting an
// invitation would make a user own two catalog groups.
const CodeOwnershipConflict = "CATALOG_OWNERSHIP_CONFLICT"

const (
	MsgRequired          = "This field is required."
	MsgNoCatalogGroup    = "No catalog group found for user"
	MsgSingleGroup       = "You can only own one catalog group."
	MsgGroupNameTaken    = "catalog group with this name already exists."
	MsgEntryExists       = "This item is already in your catalog."
	MsgItemGroupNotFound = "Item group %d does not exist."
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrInvitationAccepted = errors.New("invitation has already been accepted")
	ErrInvitationExpired  = errors.New("invitation has expired")
	ErrItemGroupInUse     = errors.New("item group is still used by item definitions")
)

// ValidationErrors maps a field name to its messages.
type ValidationErrors map[string][]string

func (v ValidationErrors) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

// Err returns v as an error, or nil when it holds nothing.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(v[f], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field, msg string) ValidationErrors {
	return ValidationErrors{field: {msg}}
}

// OwnershipConflictError is returned when a non-superuser accepts an
// invitation while still owning another catalog group.
type OwnershipConflictError struct {
	GroupName string
}

func (e *OwnershipConflictError) Error() string {
	return fmt.Sprintf("user already owns catalog group %q", e.GroupName)
}
