package inventory

import (
	"github.com/tech-arch1tect/backoffice/database"
	"go.uber.org/fx"
)

func ProvideStore(conn *database.Connection) (Store, error) {
	if conn.Bolt != nil {
		return NewBoltStore(conn.Bolt)
	}
	return NewGormStore(conn.SQL), nil
}

var Options = fx.Options(
	fx.Provide(ProvideStore, NewService),
)
