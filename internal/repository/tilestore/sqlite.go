package tilestore

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/jaennil/terrain_streamer/pkg/logger"
)

type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSQLiteStore(path string, l logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{
		db:     db,
		logger: l,
	}

	err = s.runMigrations()
	if err != nil {
		return nil, err
	}

	l.Info("sqlite snapshot store initialized", "path", path)

	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations)

	err := goose.SetDialect("sqlite3")
	if err != nil {
		return err
	}

	err = goose.Up(s.db, "migrations")
	if err != nil {
		return err
	}

	return nil
}

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) Get(k Key) (Value, bool, error) {
	s.logger.Debug("sqlite snapshot get", "x", k.X, "y", k.Y, "resolution", k.Resolution, "curve", k.Curve)

	query := `SELECT tile_data
	FROM tile_snapshots
	WHERE x = ? AND y = ? AND resolution = ? AND curve = ?`

	var tileData []byte
	err := s.db.QueryRow(query, k.X, k.Y, k.Resolution, k.Curve).Scan(&tileData)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		s.logger.Error("sqlite snapshot get failed", "x", k.X, "y", k.Y, "error", err)
		return nil, false, err
	}

	return tileData, true, nil
}

func (s *SQLiteStore) Set(k Key, v Value) error {
	s.logger.Debug("sqlite snapshot set", "x", k.X, "y", k.Y, "resolution", k.Resolution, "curve", k.Curve)

	query := `INSERT INTO tile_snapshots (x, y, resolution, curve, tile_data)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(x, y, resolution, curve) DO UPDATE SET tile_data = excluded.tile_data`

	_, err := s.db.Exec(query, k.X, k.Y, k.Resolution, k.Curve, []byte(v))
	if err != nil {
		s.logger.Error("sqlite snapshot set failed", "x", k.X, "y", k.Y, "error", err)
		return err
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
