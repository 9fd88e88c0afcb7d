// Package repository persists participants. Postgres backs production
// deployments; SQLite backs single-machine events and tests.
package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/JonMunkholm/checkin/internal/participant"
)

// ErrDuplicate is returned when a single insert collides with an existing
// record on the identity triple.
var ErrDuplicate = errors.New("participant already exists")

// ErrIncompleteIdentity is returned when an update or targeted delete names
// only part of the identity triple.
var ErrIncompleteIdentity = errors.New("registrantId, registrationType and firstName are all required")

// Repository is the CRUD surface behind the participants API.
type Repository interface {
	// List returns every participant, newest first.
	List(ctx context.Context) ([]participant.Participant, error)

	// Create inserts one record and returns it with server-assigned fields.
	Create(ctx context.Context, p participant.Participant) (participant.Participant, error)

	// CreateMany inserts records in one transaction. Records colliding on the
	// identity triple are skipped and counted, not reported as errors.
	CreateMany(ctx context.Context, records []participant.Participant) (BulkResult, error)

	// Update applies patch to every record matching id and returns the count.
	Update(ctx context.Context, id participant.Identity, patch participant.Patch) (int64, error)

	// Delete removes every record matching id and returns the count.
	Delete(ctx context.Context, id participant.Identity) (int64, error)

	// DeleteAll removes every record and returns the count.
	DeleteAll(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

// BulkResult reports the outcome of CreateMany.
type BulkResult = participant.BulkResult

// columns lists the insertable columns in bind order.
var columns = []string{
	"registrant_id", "registration_type", "first_name", "last_name",
	"email", "phone", "address", "city", "state", "zip",
	"checked_in", "attendees", "additional_family", "total_paid", "shirts",
}

var selectColumns = "id, created_at, " + strings.Join(columns, ", ")

const conflictTarget = "(registrant_id, registration_type, first_name)"

func insertArgs(p participant.Participant) []any {
	return []any{
		p.RegistrantID, p.RegistrationType, p.FirstName, p.LastName,
		p.Email, p.Phone, p.Address, p.City, p.State, p.Zip,
		p.CheckedIn, p.Attendees, p.AdditionalFamily, p.TotalPaid, string(p.Shirts),
	}
}

// placeholderFunc renders the i-th bind marker, counting from 1.
type placeholderFunc func(i int) string

func postgresPlaceholder(i int) string { return "$" + strconv.Itoa(i) }
func sqlitePlaceholder(int) string     { return "?" }

func insertSQL(ph placeholderFunc, onConflict bool) string {
	marks := make([]string, len(columns))
	for i := range columns {
		marks[i] = ph(i + 1)
	}
	var b strings.Builder
	b.WriteString("INSERT INTO participants (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") VALUES (")
	b.WriteString(strings.Join(marks, ", "))
	b.WriteString(")")
	if onConflict {
		b.WriteString(" ON CONFLICT " + conflictTarget + " DO NOTHING")
	}
	b.WriteString(" RETURNING " + selectColumns)
	return b.String()
}

// updateSQL builds the UPDATE for the non-nil fields of patch. ok is false
// when the patch changes nothing.
func updateSQL(ph placeholderFunc, id participant.Identity, patch participant.Patch) (query string, args []any, ok bool) {
	var sets []string
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = "+ph(len(args)))
	}

	if patch.RegistrantID != nil {
		add("registrant_id", *patch.RegistrantID)
	}
	if patch.RegistrationType != nil {
		add("registration_type", *patch.RegistrationType)
	}
	if patch.FirstName != nil {
		add("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		add("last_name", *patch.LastName)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Phone != nil {
		add("phone", *patch.Phone)
	}
	if patch.Address != nil {
		add("address", *patch.Address)
	}
	if patch.City != nil {
		add("city", *patch.City)
	}
	if patch.State != nil {
		add("state", *patch.State)
	}
	if patch.Zip != nil {
		add("zip", *patch.Zip)
	}
	if patch.CheckedIn != nil {
		add("checked_in", *patch.CheckedIn)
	}
	if patch.Attendees != nil {
		add("attendees", *patch.Attendees)
	}
	if patch.AdditionalFamily != nil {
		add("additional_family", *patch.AdditionalFamily)
	}
	if patch.TotalPaid != nil {
		add("total_paid", *patch.TotalPaid)
	}
	if patch.Shirts != nil {
		add("shirts", string(*patch.Shirts))
	}
	if len(sets) == 0 {
		return "", nil, false
	}

	where, whereArgs := identityWhere(ph, id, len(args))
	args = append(args, whereArgs...)
	return "UPDATE participants SET " + strings.Join(sets, ", ") + " WHERE " + where, args, true
}

func identityWhere(ph placeholderFunc, id participant.Identity, offset int) (string, []any) {
	where := "registrant_id = " + ph(offset+1) +
		" AND registration_type = " + ph(offset+2) +
		" AND first_name = " + ph(offset+3)
	return where, []any{id.RegistrantID, id.RegistrationType, id.FirstName}
}

// prepare fills defaults a record must carry before it is stored.
func prepare(p participant.Participant) participant.Participant {
	if p.Shirts == "" {
		p.Shirts = participant.DefaultShirt
	}
	return p
}
