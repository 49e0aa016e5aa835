// Package repo 实现用户与会话的数据访问层。
package repo

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jamthebest/Sales-web-page/internal/domain"
)

// UserRepository 定义用户数据访问接口
type UserRepository interface {
	Create(user *domain.User) error
	GetByID(id string) (*domain.User, error)
	GetByEmail(email string) (*domain.User, error)
	UpdateRole(id string, role domain.UserRole) (bool, error)

	// 会话
	CreateSession(session *domain.Session) error
	GetSession(token string) (*domain.Session, error)
	DeleteSession(token string) error
}

// userRepo 实现UserRepository接口
type userRepo struct {
	db *sql.DB
}

// NewUserRepository 创建用户仓储实例
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepo{db: db}
}

// Create 创建用户
func (r *userRepo) Create(user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = domain.UserRoleUser
	}

	query := `
		INSERT INTO users (id, email, name, picture, role, password_hash)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	var passwordHash sql.NullString
	if user.PasswordHash != "" {
		passwordHash = sql.NullString{String: user.PasswordHash, Valid: true}
	}

	_, err := r.db.Exec(query, user.ID, user.Email, user.Name, user.Picture, user.Role, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID 根据ID获取用户
func (r *userRepo) GetByID(id string) (*domain.User, error) {
	return r.getBy("id", id)
}

// GetByEmail 根据邮箱获取用户
func (r *userRepo) GetByEmail(email string) (*domain.User, error) {
	return r.getBy("email", email)
}

func (r *userRepo) getBy(column, value string) (*domain.User, error) {
	query := fmt.Sprintf(
		`SELECT id, email, name, picture, role, password_hash, created_at FROM users WHERE %s = ?`,
		column,
	)

	user := &domain.User{}
	var passwordHash sql.NullString
	err := r.db.QueryRow(query, value).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Picture,
		&user.Role,
		&passwordHash,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	if passwordHash.Valid {
		user.PasswordHash = passwordHash.String
	}
	return user, nil
}

// UpdateRole 更新用户角色
// 返回 false 表示用户不存在。
func (r *userRepo) UpdateRole(id string, role domain.UserRole) (bool, error) {
	result, err := r.db.Exec(`UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return false, fmt.Errorf("failed to update user role: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// CreateSession 持久化会话
func (r *userRepo) CreateSession(session *domain.Session) error {
	query := `
		INSERT INTO user_sessions (session_token, user_id, expires_at)
		VALUES (?, ?, ?)
	`
	_, err := r.db.Exec(query, session.SessionToken, session.UserID, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession 根据令牌获取会话
func (r *userRepo) GetSession(token string) (*domain.Session, error) {
	query := `SELECT session_token, user_id, expires_at, created_at FROM user_sessions WHERE session_token = ?`

	session := &domain.Session{}
	err := r.db.QueryRow(query, token).Scan(
		&session.SessionToken,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession 删除会话（登出即吊销）
func (r *userRepo) DeleteSession(token string) error {
	_, err := r.db.Exec(`DELETE FROM user_sessions WHERE session_token = ?`, token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
