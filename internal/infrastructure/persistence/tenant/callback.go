package tenant

import (
	"strings"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const merchantColumn = "merchant_id"

// MerchantCallback adds merchant filtering to statements on registered tables
type MerchantCallback struct {
	tables map[string]struct{}
}

// NewMerchantCallback creates a callback that guards the given tables
func NewMerchantCallback(tables ...string) *MerchantCallback {
	set := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		set[t] = struct{}{}
	}
	return &MerchantCallback{tables: set}
}

// Register installs the callbacks on db
func (mc *MerchantCallback) Register(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("merchant:before_query", mc.addFilter); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("merchant:before_row", mc.addFilter); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("merchant:before_update", mc.addFilter); err != nil {
		return err
	}
	// creates are not filtered: merchant_id is set explicitly on new rows
	return db.Callback().Delete().Before("gorm:delete").Register("merchant:before_delete", mc.addFilter)
}

func (mc *MerchantCallback) addFilter(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil || shared.HasElevatedAccess(ctx) {
		return
	}
	if _, guarded := mc.tables[db.Statement.Table]; !guarded {
		return
	}
	raw := logger.GetMerchantID(ctx)
	if raw == "" || hasMerchantCondition(db) {
		return
	}
	if _, err := uuid.Parse(raw); err != nil {
		_ = db.AddError(ErrInvalidMerchantID)
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: clause.CurrentTable, Name: merchantColumn},
				Value:  raw,
			},
		},
	})
}

func hasMerchantCondition(db *gorm.DB) bool {
	whereClause, ok := db.Statement.Clauses["WHERE"]
	if !ok {
		return false
	}
	where, ok := whereClause.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, expr := range where.Exprs {
		if exprMentionsMerchant(expr) {
			return true
		}
	}
	return false
}

func exprMentionsMerchant(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == merchantColumn
		}
	case clause.IN:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == merchantColumn
		}
	case clause.Expr:
		return strings.Contains(e.SQL, merchantColumn)
	case clause.AndConditions:
		for _, c := range e.Exprs {
			if exprMentionsMerchant(c) {
				return true
			}
		}
	}
	return false
}
