package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/marcus-grant/depo/internal/apperr"
	"github.com/marcus-grant/depo/internal/models"
)

// FindByHash looks an item up by its full content hash (dedup lookup).
func (db *DB) FindByHash(ctx context.Context, hashFull string) (models.Item, error) {
	return db.findOne(ctx, `WHERE hash_full = ?`, hashFull)
}

// FindByCode looks an item up by its canonical short code.
func (db *DB) FindByCode(ctx context.Context, code string) (models.Item, error) {
	return db.findOne(ctx, `WHERE code = ?`, code)
}

func (db *DB) findOne(ctx context.Context, where string, arg any) (models.Item, error) {
	var it models.Item
	var kind, perm string
	var originAt sql.NullInt64
	err := db.conn.QueryRowContext(ctx,
		`SELECT hash_full, code, kind, size_b, uid, perm, upload_at, origin_at FROM items `+where,
		arg,
	).Scan(&it.HashFull, &it.Code, &kind, &it.SizeBytes, &it.OwnerID, &perm, &it.UploadedAt, &originAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Item{}, fmt.Errorf("repo: item: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("repo: query item: %w", err)
	}

	k, ok := models.ParseKind(kind)
	if !ok {
		return models.Item{}, fmt.Errorf("repo: unknown kind %q for %s", kind, it.HashFull)
	}
	it.Kind = k
	v, ok := models.ParseVisibility(perm)
	if !ok {
		return models.Item{}, fmt.Errorf("repo: unknown visibility %q for %s", perm, it.HashFull)
	}
	it.Visibility = v
	if originAt.Valid {
		it.OriginAt = originAt.Int64
	}

	if err := db.loadSubtype(ctx, &it); err != nil {
		return models.Item{}, err
	}
	return it, nil
}

func (db *DB) loadSubtype(ctx context.Context, it *models.Item) error {
	switch it.Kind {
	case models.KindText:
		var format string
		err := db.conn.QueryRowContext(ctx,
			`SELECT format FROM text_items WHERE hash_full = ?`, it.HashFull).Scan(&format)
		if err != nil {
			return fmt.Errorf("repo: text subtype for %s: %w", it.HashFull, err)
		}
		it.Text = &models.TextInfo{Format: models.ContentFormat(format)}
	case models.KindPicture:
		var pic models.PictureInfo
		var format string
		err := db.conn.QueryRowContext(ctx,
			`SELECT format, width, height FROM pic_items WHERE hash_full = ?`, it.HashFull).
			Scan(&format, &pic.Width, &pic.Height)
		if err != nil {
			return fmt.Errorf("repo: pic subtype for %s: %w", it.HashFull, err)
		}
		pic.Format = models.ContentFormat(format)
		it.Picture = &pic
	case models.KindLink:
		var u string
		err := db.conn.QueryRowContext(ctx,
			`SELECT url FROM link_items WHERE hash_full = ?`, it.HashFull).Scan(&u)
		if err != nil {
			return fmt.Errorf("repo: link subtype for %s: %w", it.HashFull, err)
		}
		it.Link = &models.LinkInfo{URL: u}
	}
	return nil
}

// Insert resolves a collision-free code and writes the base and subtype
// rows in one transaction.
func (db *DB) Insert(ctx context.Context, plan models.WritePlan, ownerID int64, vis models.Visibility) (models.Item, error) {
	if vis == "" {
		vis = models.VisibilityPublic
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.Item{}, fmt.Errorf("repo: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	code, err := resolveCode(ctx, tx, plan.HashFull, plan.CodeMinLen)
	if err != nil {
		return models.Item{}, err
	}

	var originAt any
	if plan.OriginAt != 0 {
		originAt = plan.OriginAt
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO items (hash_full, code, kind, size_b, uid, perm, upload_at, origin_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.HashFull, code, string(plan.Kind), plan.SizeBytes, ownerID, string(vis), plan.UploadedAt, originAt)
	if err != nil {
		return models.Item{}, mapInsertErr(err, plan.HashFull, code)
	}

	switch plan.Kind {
	case models.KindText:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO text_items (hash_full, format) VALUES (?, ?)`,
			plan.HashFull, string(plan.Format))
	case models.KindPicture:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO pic_items (hash_full, format, width, height) VALUES (?, ?, ?, ?)`,
			plan.HashFull, string(plan.Format), plan.Width, plan.Height)
	case models.KindLink:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO link_items (hash_full, url) VALUES (?, ?)`,
			plan.HashFull, plan.LinkURL)
	default:
		err = fmt.Errorf("repo: unknown kind %q", plan.Kind)
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("repo: insert subtype: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Item{}, mapInsertErr(err, plan.HashFull, code)
	}

	it := models.Item{
		Code:       code,
		HashFull:   plan.HashFull,
		Kind:       plan.Kind,
		SizeBytes:  plan.SizeBytes,
		OwnerID:    ownerID,
		Visibility: vis,
		UploadedAt: plan.UploadedAt,
		OriginAt:   plan.OriginAt,
	}
	switch plan.Kind {
	case models.KindText:
		it.Text = &models.TextInfo{Format: plan.Format}
	case models.KindPicture:
		it.Picture = &models.PictureInfo{Format: plan.Format, Width: plan.Width, Height: plan.Height}
	case models.KindLink:
		it.Link = &models.LinkInfo{URL: plan.LinkURL}
	}
	return it, nil
}

// resolveCode finds the shortest unclaimed prefix of hashFull, starting
// at minLen. Shorter codes win; a prefix held by the same hash means a
// concurrent insert of identical content already landed.
func resolveCode(ctx context.Context, tx *sql.Tx, hashFull string, minLen int) (string, error) {
	if minLen < 1 || minLen > len(hashFull) {
		return "", fmt.Errorf("repo: code min length %d out of range for hash of length %d: %w",
			minLen, len(hashFull), apperr.ErrValidation)
	}
	for l := minLen; l <= len(hashFull); l++ {
		prefix := hashFull[:l]
		var owner string
		err := tx.QueryRowContext(ctx,
			`SELECT hash_full FROM items WHERE code = ?`, prefix).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return prefix, nil
		}
		if err != nil {
			return "", fmt.Errorf("repo: resolve code: %w", err)
		}
		if owner == hashFull {
			return "", fmt.Errorf("repo: hash %s already inserted: %w", hashFull, apperr.ErrAlreadyExists)
		}
	}
	// The full-length prefix is the hash itself, so exhaustion means the
	// table claims our hash under a different owner. Logic bug.
	return "", fmt.Errorf("repo: no assignable prefix for %s: %w", hashFull, apperr.ErrCodeCollision)
}

// mapInsertErr translates SQLite constraint violations into the error
// taxonomy: a duplicate hash is a lost dedup race the caller resolves by
// re-running the lookup, a duplicate code is an internal failure.
func mapInsertErr(err error, hashFull, code string) error {
	var se sqlite3.Error
	if errors.As(err, &se) &&
		(se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique) {
		if strings.Contains(err.Error(), "items.code") {
			return fmt.Errorf("repo: resolved code %s already taken: %w", code, apperr.ErrCodeCollision)
		}
		return fmt.Errorf("repo: hash %s already inserted: %w", hashFull, apperr.ErrAlreadyExists)
	}
	return fmt.Errorf("repo: insert item: %w", err)
}

// Delete removes an item row; subtype rows go with it via cascade.
// No error when the hash is absent.
func (db *DB) Delete(ctx context.Context, hashFull string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM items WHERE hash_full = ?`, hashFull); err != nil {
		return fmt.Errorf("repo: delete %s: %w", hashFull, err)
	}
	return nil
}

// AllItems returns every persisted item. Used by the storage
// reconciliation pass, not by request handling.
func (db *DB) AllItems(ctx context.Context) ([]models.Item, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT hash_full FROM items ORDER BY upload_at`)
	if err != nil {
		return nil, fmt.Errorf("repo: all items: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.Item, 0, len(hashes))
	for _, h := range hashes {
		it, err := db.FindByHash(ctx, h)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}
