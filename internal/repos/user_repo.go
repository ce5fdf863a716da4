package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, email, username, password_hash, role, COALESCE(tenant_id,'') AS tenant_id`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE username=?`, username)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	id, err := insertUser(ctx, r.DB, u)
	if err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

// CreateWithTenant stores a seller and the storefront it owns atomically: if
// the user insert fails no tenant is left behind.
func (r *UserRepo) CreateWithTenant(ctx context.Context, t domain.Tenant, u domain.User) (*domain.User, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	tenantID, err := insertTenant(ctx, tx, t)
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	u.TenantID = tenantID
	id, err := insertUser(ctx, tx, u)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

func insertUser(ctx context.Context, db sqlx.ExecerContext, u domain.User) (string, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	var tenant any
	if u.TenantID != "" {
		tenant = u.TenantID
	}
	_, err := db.ExecContext(ctx, `
	  INSERT INTO users(id, email, username, password_hash, role, tenant_id)
	  VALUES(?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.Username, u.Hash, u.Role, tenant)
	return u.ID, err
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `
      SELECT u.id,u.email,u.username,u.password_hash,u.role,COALESCE(u.tenant_id,'') AS tenant_id
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// RotateSession binds userID to a freshly generated session id and drops prevSID,
// so an id handed out before authentication never carries a signed-in user.
func (r *UserRepo) RotateSession(ctx context.Context, prevSID, userID string) (string, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if prevSID != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, prevSID); err != nil {
			return "", err
		}
	}
	sid := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `INSERT INTO sessions(id,user_id,last_seen) VALUES(?,?,CURRENT_TIMESTAMP)`, sid, userID); err != nil {
		return "", err
	}
	return sid, tx.Commit()
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}
