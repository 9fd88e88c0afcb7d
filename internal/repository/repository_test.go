package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/checkin/internal/participant"
)

func family() []participant.Participant {
	return []participant.Participant{
		{RegistrantID: "123", RegistrationType: "Family", FirstName: "Ana", LastName: "Diaz", Email: "ana@example.com", Attendees: 3, AdditionalFamily: 2, TotalPaid: 60, Shirts: participant.ShirtMD},
		{RegistrantID: "123", RegistrationType: "Family", FirstName: "Ben", LastName: "Diaz", Attendees: 1, Shirts: participant.ShirtYSM},
		{RegistrantID: "456", RegistrationType: "Individual", FirstName: "Cy", LastName: "Lee", Phone: "555-0100", Attendees: 1, Shirts: participant.ShirtXL},
	}
}

// exerciseRepository runs the shared behaviour checks against any backend.
func exerciseRepository(t *testing.T, repo Repository) {
	ctx := context.Background()
	require.NoError(t, repo.Ping(ctx))

	t.Run("empty list", func(t *testing.T) {
		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("create assigns id and defaults shirt", func(t *testing.T) {
		created, err := repo.Create(ctx, participant.Participant{RegistrantID: "999", FirstName: "Solo", Attendees: 1})
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())
		assert.Equal(t, participant.DefaultShirt, created.Shirts)

		_, err = repo.Create(ctx, participant.Participant{RegistrantID: "999", FirstName: "Solo"})
		assert.True(t, errors.Is(err, ErrDuplicate), "second create error = %v", err)
	})

	t.Run("bulk insert skips conflicts", func(t *testing.T) {
		records := append(family(), family()[0])
		res, err := repo.CreateMany(ctx, records)
		require.NoError(t, err)
		assert.Len(t, res.Created, 3)
		assert.Equal(t, 1, res.Skipped)
		assert.Equal(t, "Ana", res.Created[0].FirstName)
		assert.Equal(t, 60.0, res.Created[0].TotalPaid)

		again, err := repo.CreateMany(ctx, family())
		require.NoError(t, err)
		assert.Empty(t, again.Created)
		assert.Equal(t, 3, again.Skipped)

		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 4)
	})

	t.Run("list newest first", func(t *testing.T) {
		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, list)
		assert.Equal(t, "Cy", list[0].FirstName)
		assert.Equal(t, "Solo", list[len(list)-1].FirstName)
	})

	t.Run("update by identity", func(t *testing.T) {
		id := participant.Identity{RegistrantID: "123", RegistrationType: "Family", FirstName: "Ben"}
		n, err := repo.Update(ctx, id, participant.CheckIn())
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		list, err := repo.List(ctx)
		require.NoError(t, err)
		for _, p := range list {
			assert.Equal(t, id.Matches(p), p.CheckedIn, "record %s", p.Identity())
		}

		n, err = repo.Update(ctx, participant.Identity{RegistrantID: "nope"}, participant.CheckIn())
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = repo.Update(ctx, id, participant.Patch{})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("update multiple fields", func(t *testing.T) {
		id := participant.Identity{RegistrantID: "456", RegistrationType: "Individual", FirstName: "Cy"}
		paid := 12.75
		size := participant.ShirtXXL
		email := "cy@example.com"
		n, err := repo.Update(ctx, id, participant.Patch{TotalPaid: &paid, Shirts: &size, Email: &email})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, 12.75, list[0].TotalPaid)
		assert.Equal(t, participant.ShirtXXL, list[0].Shirts)
		assert.Equal(t, "cy@example.com", list[0].Email)
		assert.Equal(t, "555-0100", list[0].Phone)
	})

	t.Run("update onto existing identity", func(t *testing.T) {
		id := participant.Identity{RegistrantID: "123", RegistrationType: "Family", FirstName: "Ben"}
		name := "Ana"
		_, err := repo.Update(ctx, id, participant.Patch{FirstName: &name})
		assert.True(t, errors.Is(err, ErrDuplicate), "error = %v", err)
	})

	t.Run("delete by identity", func(t *testing.T) {
		n, err := repo.Delete(ctx, participant.Identity{RegistrantID: "999", FirstName: "Solo"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = repo.Delete(ctx, participant.Identity{RegistrantID: "999", FirstName: "Solo"})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("delete all", func(t *testing.T) {
		n, err := repo.DeleteAll(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestUpdateSQL(t *testing.T) {
	checked := true
	paid := 5.0
	query, args, ok := updateSQL(postgresPlaceholder, participant.Identity{RegistrantID: "1", RegistrationType: "T", FirstName: "A"},
		participant.Patch{CheckedIn: &checked, TotalPaid: &paid})
	require.True(t, ok)
	assert.Equal(t, "UPDATE participants SET checked_in = $1, total_paid = $2 WHERE registrant_id = $3 AND registration_type = $4 AND first_name = $5", query)
	assert.Equal(t, []any{true, 5.0, "1", "T", "A"}, args)

	_, _, ok = updateSQL(sqlitePlaceholder, participant.Identity{}, participant.Patch{})
	assert.False(t, ok)
}

func TestInsertSQL(t *testing.T) {
	q := insertSQL(postgresPlaceholder, true)
	assert.Contains(t, q, "$15)")
	assert.Contains(t, q, "ON CONFLICT (registrant_id, registration_type, first_name) DO NOTHING")
	assert.Contains(t, q, "RETURNING id, created_at, registrant_id")
	assert.NotContains(t, insertSQL(postgresPlaceholder, false), "ON CONFLICT")
}
