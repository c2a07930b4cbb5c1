package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/pvolek/facegate/internal/gallery"
)

// PersonStore implements gallery.Store on top of PostgreSQL. Samples
// are rewritten wholesale on Save; per-person sample counts are small
// enough that the simplicity wins over diffing.
type PersonStore struct {
	pool *Pool
}

func NewPersonStore(pool *Pool) *PersonStore {
	return &PersonStore{pool: pool}
}

// Load returns all persons with their samples in enrollment order.
func (s *PersonStore) Load(ctx context.Context) ([]gallery.Person, error) {
	rows, err := s.pool.db.Query(ctx, `
		SELECT id, name, created_at
		FROM people
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer rows.Close()

	var persons []gallery.Person
	index := make(map[string]int)
	for rows.Next() {
		var p gallery.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		index[p.ID] = len(persons)
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}

	sampleRows, err := s.pool.db.Query(ctx, `
		SELECT person_id, descriptor, image
		FROM face_samples
		ORDER BY person_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("query face samples: %w", err)
	}
	defer sampleRows.Close()

	for sampleRows.Next() {
		var personID string
		var vec pgvector.Vector
		var image []byte
		if err := sampleRows.Scan(&personID, &vec, &image); err != nil {
			return nil, fmt.Errorf("scan face sample: %w", err)
		}
		i, ok := index[personID]
		if !ok {
			continue
		}
		persons[i].Descriptors = append(persons[i].Descriptors, vec.Slice())
		persons[i].Images = append(persons[i].Images, image)
	}
	if err := sampleRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate face samples: %w", err)
	}

	return persons, nil
}

// Save upserts the person row and replaces their samples.
func (s *PersonStore) Save(ctx context.Context, person gallery.Person) error {
	tx, err := s.pool.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO people (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, person.ID, person.Name, person.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert person: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM face_samples WHERE person_id = $1", person.ID); err != nil {
		return fmt.Errorf("clear face samples: %w", err)
	}

	for i, descriptor := range person.Descriptors {
		var image []byte
		if i < len(person.Images) {
			image = person.Images[i]
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO face_samples (person_id, position, descriptor, image)
			VALUES ($1, $2, $3, $4)
		`, person.ID, i, pgvector.NewVector(descriptor), image)
		if err != nil {
			return fmt.Errorf("insert face sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Delete removes the person; samples go with them via the cascade.
func (s *PersonStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.db.Exec(ctx, "DELETE FROM people WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	return nil
}

// Count returns the number of enrolled people.
func (s *PersonStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.db.QueryRow(ctx, "SELECT COUNT(*) FROM people").Scan(&count); err != nil {
		return 0, fmt.Errorf("count people: %w", err)
	}
	return count, nil
}
