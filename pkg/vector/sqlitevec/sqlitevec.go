// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/noemaco/noema/pkg/vector"
)

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct {
	db         *sql.DB
	dimensions uint
	logger     *zap.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("%w: database path is required", vector.ErrConfig)
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("%w: embedding dimensions cannot be 0", vector.ErrConfig)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrConnection, err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrConnection, err)
	}

	// Record table holding string ids, the original text, and metadata.
	// vec0 virtual tables use integer rowids, so this also maps
	// (namespace, doc_id) pairs to rowids.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vec_records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			namespace TEXT NOT NULL,
			doc_id TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			metadata_json TEXT NOT NULL DEFAULT '{}',
			UNIQUE(namespace, doc_id)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating records table: %w", err)
	}

	// vec0 virtual table partitioned by namespace so KNN queries stay
	// scoped to one logical partition.
	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(
			namespace TEXT partition key,
			embedding float[%d]
		)`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Driver{
		db:         db,
		dimensions: c.Dimensions,
		logger:     logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

func (d *Driver) checkDimensions(v []float32) error {
	if uint(len(v)) != d.dimensions {
		return fmt.Errorf("%w: embedding has %d dimensions, index configured for %d",
			vector.ErrConfig, len(v), d.dimensions)
	}
	return nil
}

// Upsert stores documents with their embeddings.
// Records with the same (namespace, id) are overwritten.
func (d *Driver) Upsert(ctx context.Context, namespace string, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	for _, doc := range docs {
		if err := d.checkDimensions(doc.Embedding); err != nil {
			return err
		}
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		metaJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("serializing metadata for doc %s: %w", doc.ID, err)
		}
		embBlob := serializeFloat32(doc.Embedding)

		var existingRowID int64
		err = tx.QueryRowContext(ctx,
			`SELECT rowid FROM vec_records WHERE namespace = ? AND doc_id = ?`,
			namespace, doc.ID,
		).Scan(&existingRowID)

		switch err {
		case nil:
			if _, err := tx.ExecContext(ctx,
				`UPDATE vec_records SET content = ?, metadata_json = ? WHERE rowid = ?`,
				doc.Text, string(metaJSON), existingRowID,
			); err != nil {
				return fmt.Errorf("updating record %s: %w", doc.ID, err)
			}

			// Replace embedding via DELETE + INSERT
			// (vec0 does not support UPDATE)
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM vec_embeddings WHERE rowid = ?`, existingRowID,
			); err != nil {
				return fmt.Errorf("deleting old embedding for doc %s: %w", doc.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_embeddings(rowid, namespace, embedding) VALUES (?, ?, ?)`,
				existingRowID, namespace, embBlob,
			); err != nil {
				return fmt.Errorf("re-inserting embedding for doc %s: %w", doc.ID, err)
			}
		case sql.ErrNoRows:
			result, err := tx.ExecContext(ctx,
				`INSERT INTO vec_records(namespace, doc_id, content, metadata_json) VALUES (?, ?, ?, ?)`,
				namespace, doc.ID, doc.Text, string(metaJSON),
			)
			if err != nil {
				return fmt.Errorf("inserting record %s: %w", doc.ID, err)
			}

			rowID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("getting rowid for doc %s: %w", doc.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_embeddings(rowid, namespace, embedding) VALUES (?, ?, ?)`,
				rowID, namespace, embBlob,
			); err != nil {
				return fmt.Errorf("inserting embedding for doc %s: %w", doc.ID, err)
			}
		default:
			return fmt.Errorf("checking for existing record %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("upserted documents to sqlite-vec",
		zap.String("namespace", namespace),
		zap.Int("count", len(docs)),
	)

	return nil
}

// Query finds the topK most similar documents to the given embedding.
func (d *Driver) Query(ctx context.Context, namespace string, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if err := d.checkDimensions(embedding); err != nil {
		return nil, err
	}

	if topK <= 0 {
		topK = 10
	}

	queryBlob := serializeFloat32(embedding)

	// KNN query via vec0 MATCH scoped to the namespace partition, then
	// JOIN back for ids, text, and metadata.
	rows, err := d.db.QueryContext(ctx, `
		SELECT
			r.doc_id,
			r.content,
			r.metadata_json,
			ve.distance
		FROM vec_embeddings ve
		INNER JOIN vec_records r ON r.rowid = ve.rowid
		WHERE ve.namespace = ?
			AND ve.embedding MATCH ?
			AND ve.k = ?
		ORDER BY ve.distance
	`, namespace, queryBlob, topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.QueryResult
	for rows.Next() {
		var docID, content, metaJSON string
		var distance float64
		if err := rows.Scan(&docID, &content, &metaJSON, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		meta := map[string]string{}
		_ = json.Unmarshal([]byte(metaJSON), &meta)

		results = append(results, vector.QueryResult{
			Document: vector.Document{
				ID:       docID,
				Text:     content,
				Metadata: meta,
			},
			// Convert distance to similarity score: lower distance = higher similarity
			Score: float32(1.0 / (1.0 + distance)),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec",
		zap.String("namespace", namespace),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Fetch retrieves a single document by id.
func (d *Driver) Fetch(ctx context.Context, namespace, id string) (*vector.Document, error) {
	var rowID int64
	var content, metaJSON string
	err := d.db.QueryRowContext(ctx,
		`SELECT rowid, content, metadata_json FROM vec_records WHERE namespace = ? AND doc_id = ?`,
		namespace, id,
	).Scan(&rowID, &content, &metaJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s/%s", vector.ErrNotFound, namespace, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}

	doc := &vector.Document{
		ID:       id,
		Text:     content,
		Metadata: map[string]string{},
	}
	_ = json.Unmarshal([]byte(metaJSON), &doc.Metadata)

	var embBlob []byte
	err = d.db.QueryRowContext(ctx,
		`SELECT embedding FROM vec_embeddings WHERE rowid = ?`, rowID,
	).Scan(&embBlob)
	if err == nil && len(embBlob) > 0 {
		doc.Embedding, _ = deserializeFloat32(embBlob)
	}

	return doc, nil
}

// Delete removes documents by their IDs. Absent ids are ignored.
func (d *Driver) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, namespace)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	inClause := strings.Join(placeholders, ",")

	// Resolve rowids first so the vec0 rows go too.
	query := fmt.Sprintf(
		`SELECT rowid FROM vec_records WHERE namespace = ? AND doc_id IN (%s)`, inClause,
	)
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying rowids for deletion: %w", err)
	}

	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning rowid: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rowids: %w", err)
	}

	for _, rowID := range rowIDs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vec_embeddings WHERE rowid = ?`, rowID,
		); err != nil {
			return fmt.Errorf("deleting embedding rowid %d: %w", rowID, err)
		}
	}

	deleteQuery := fmt.Sprintf(
		`DELETE FROM vec_records WHERE namespace = ? AND doc_id IN (%s)`, inClause,
	)
	if _, err := tx.ExecContext(ctx, deleteQuery, args...); err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("deleted documents from sqlite-vec",
		zap.String("namespace", namespace),
		zap.Int("count", len(ids)),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}

var _ vector.Driver = (*Driver)(nil)
