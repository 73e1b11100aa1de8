package sql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Brawl345/epicture/logger"
	"github.com/Brawl345/epicture/model"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

type credentialService struct {
	*sqlx.DB
	log zerolog.Logger
	key string
}

func NewCredentialService(db *sqlx.DB) *credentialService {
	return &credentialService{
		DB:  db,
		log: logger.New("credentialService"),
		key: model.UserTokenKey,
	}
}

func (db *credentialService) Save(ctx context.Context, token string) error {
	query := `INSERT INTO credentials (name, value) VALUES (?, ?) ON CONFLICT (name) DO UPDATE SET value = ?`
	if db.DriverName() == DriverMySQL {
		query = `INSERT INTO credentials (name, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = ?`
	}

	if _, err := db.ExecContext(ctx, query, db.key, token, token); err != nil {
		return &model.StorageError{Op: "save", Err: err}
	}

	db.log.Debug().Str("name", db.key).Msg("Stored credential")
	return nil
}

func (db *credentialService) Load(ctx context.Context) (*model.Credential, error) {
	const query = `SELECT name, value FROM credentials WHERE name = ?`
	var credential model.Credential
	err := db.GetContext(ctx, &credential, query, db.key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &model.StorageError{Op: "load", Err: err}
	}
	if credential.Value == "" {
		return nil, nil
	}
	return &credential, nil
}

func (db *credentialService) Clear(ctx context.Context) error {
	const query = `DELETE FROM credentials WHERE name = ?`
	res, err := db.ExecContext(ctx, query, db.key)
	if err != nil {
		return &model.StorageError{Op: "clear", Err: err}
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		db.log.Debug().Str("name", db.key).Msg("No credential to clear")
	}
	return nil
}
