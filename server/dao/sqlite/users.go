package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/sequitur/server/dao"
	"github.com/google/uuid"
)

// UsersDB is a dao.UserRepository backed by a users table in db.
type UsersDB struct {
	db *sql.DB
}

func (repo *UsersDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created INTEGER NOT NULL,
		last_logout_time INTEGER NOT NULL
	);`)
	return wrapDBError(err)
}

func (repo *UsersDB) Create(ctx context.Context, user dao.User) (dao.User, error) {
	newID, err := uuid.NewRandom()
	if err != nil {
		return dao.User{}, fmt.Errorf("could not generate ID: %w", err)
	}

	now := time.Now()
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password, created, last_logout_time) VALUES (?, ?, ?, ?, ?)`,
		newID.String(), user.Username, user.Password, now.Unix(), now.Unix(),
	)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newID)
}

func (repo *UsersDB) GetByID(ctx context.Context, id uuid.UUID) (dao.User, error) {
	user := dao.User{ID: id}
	var created, logout int64

	row := repo.db.QueryRowContext(ctx,
		`SELECT username, password, created, last_logout_time FROM users WHERE id = ?;`, id.String(),
	)
	if err := row.Scan(&user.Username, &user.Password, &created, &logout); err != nil {
		return user, wrapDBError(err)
	}

	user.Created = time.Unix(created, 0)
	user.LastLogoutTime = time.Unix(logout, 0)

	return user, nil
}

func (repo *UsersDB) GetByUsername(ctx context.Context, username string) (dao.User, error) {
	user := dao.User{Username: username}
	var id string
	var created, logout int64

	row := repo.db.QueryRowContext(ctx,
		`SELECT id, password, created, last_logout_time FROM users WHERE username = ?;`, username,
	)
	if err := row.Scan(&id, &user.Password, &created, &logout); err != nil {
		return user, wrapDBError(err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return user, fmt.Errorf("stored UUID %q is invalid", id)
	}
	user.ID = parsed
	user.Created = time.Unix(created, 0)
	user.LastLogoutTime = time.Unix(logout, 0)

	return user, nil
}

func (repo *UsersDB) Update(ctx context.Context, id uuid.UUID, user dao.User) (dao.User, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE users SET id=?, username=?, password=?, last_logout_time=? WHERE id=?;`,
		user.ID.String(), user.Username, user.Password, user.LastLogoutTime.Unix(), id.String(),
	)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.User{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, user.ID)
}

func (repo *UsersDB) Close() error {
	return nil
}
