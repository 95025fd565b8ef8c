package sqlrepo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// UserDirectory 基于 users 表实现 core.UserDirectory。
// 只读取昵称与头像两列，用户档案其余字段与推荐引擎无关。
type UserDirectory struct {
	db *sql.DB
}

var _ core.UserDirectory = (*UserDirectory)(nil)

// NewUserDirectory 创建用户目录。
func NewUserDirectory(db *sql.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) GetUser(ctx context.Context, userID int64) (*core.UserInfo, error) {
	var info core.UserInfo
	err := d.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(nickname, ''), COALESCE(avatar_url, '') FROM users WHERE id = $1`,
		userID,
	).Scan(&info.ID, &info.Name, &info.AvatarURL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (d *UserDirectory) GetUsers(ctx context.Context, userIDs []int64) (map[int64]*core.UserInfo, error) {
	if len(userIDs) == 0 {
		return map[int64]*core.UserInfo{}, nil
	}
	infos, err := queryAndScan(ctx, d.db,
		`SELECT id, COALESCE(nickname, ''), COALESCE(avatar_url, '') FROM users WHERE id = ANY($1)`,
		[]any{pq.Array(userIDs)},
		func(rows *sql.Rows) (*core.UserInfo, error) {
			var info core.UserInfo
			if err := rows.Scan(&info.ID, &info.Name, &info.AvatarURL); err != nil {
				return nil, err
			}
			return &info, nil
		})
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*core.UserInfo, len(infos))
	for _, info := range infos {
		out[info.ID] = info
	}
	return out, nil
}
