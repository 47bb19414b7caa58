package postgresengine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

const (
	dialectPostgres  = "postgres"
	colID            = "id"
	colData          = "data"
	castDataText     = "data::text"
	timestampShape   = `^\d{4}-\d{2}-\d{2}T`
	sqlTrue          = "TRUE"
	sqlFalse         = "FALSE"
	sqlNot           = "NOT (?)"
	sqlCoalesce      = "COALESCE(?, FALSE)"
	sqlJSONField     = "(? -> ?)"
	sqlJSONFieldText = "(? ->> ?)"
	sqlIsNull        = "(?) IS NULL"
	sqlTypeOf        = "jsonb_typeof(?)"
	sqlCastJsonb     = "?::jsonb"
	sqlCastTimestamp = "?::timestamptz"
)

type sqlQueryString = string

// compileCondition translates a condition tree into a boolean SQL expression.
// Every leaf is NULL-safe: it evaluates to TRUE or FALSE, never NULL, so NOT behaves like in Go.
func compileCondition(c docstore.Condition) (exp.Expression, error) {
	switch c.Kind() {
	case docstore.MatchAll:
		return goqu.L(sqlTrue), nil

	case docstore.AnyOf, docstore.AllOf:
		children := make([]exp.Expression, 0, len(c.Children()))
		for _, child := range c.Children() {
			compiled, err := compileCondition(child)
			if err != nil {
				return nil, err
			}
			children = append(children, compiled)
		}

		if c.Kind() == docstore.AnyOf {
			if len(children) == 0 {
				return goqu.L(sqlFalse), nil
			}
			return goqu.Or(children...), nil
		}

		if len(children) == 0 {
			return goqu.L(sqlTrue), nil
		}
		return goqu.And(children...), nil

	case docstore.Not:
		if len(c.Children()) != 1 {
			return nil, docstore.ErrInvalidFilter
		}
		compiled, err := compileCondition(c.Children()[0])
		if err != nil {
			return nil, err
		}
		return goqu.L(sqlNot, compiled), nil

	case docstore.FieldEquals:
		if isIDField(c.Field()) {
			return goqu.C(colID).Eq(c.Value()), nil
		}
		return goqu.L(sqlCoalesce, jsonText(c.Field()).Eq(c.Value())), nil

	case docstore.FieldMatchesPattern:
		if isIDField(c.Field()) {
			return goqu.L(sqlCoalesce, goqu.L("? ~* ?", goqu.C(colID), c.Value())), nil
		}
		return goqu.L(
			sqlCoalesce,
			goqu.And(
				typeOf(c.Field()).Eq("string"),
				goqu.L("? ~* ?", jsonText(c.Field()), c.Value()),
			),
		), nil

	case docstore.FieldNotIn:
		if isIDField(c.Field()) {
			if len(c.Values()) == 0 {
				return goqu.L(sqlTrue), nil
			}
			return goqu.C(colID).NotIn(c.Values()), nil
		}

		present := typeOf(c.Field()).Neq("null")
		if len(c.Values()) == 0 {
			return goqu.L(sqlCoalesce, present), nil
		}
		return goqu.L(sqlCoalesce, goqu.And(present, jsonText(c.Field()).NotIn(c.Values()))), nil

	case docstore.FieldAbsent:
		if isIDField(c.Field()) {
			return goqu.L(sqlFalse), nil
		}
		return goqu.L(sqlIsNull, jsonValue(c.Field())), nil

	case docstore.FieldNull:
		if isIDField(c.Field()) {
			return goqu.L(sqlFalse), nil
		}
		return goqu.L(sqlCoalesce, typeOf(c.Field()).Eq("null")), nil

	case docstore.FieldTimeBetween:
		return goqu.L(
			"COALESCE((CASE WHEN ? = 'string' AND ? ~ ? THEN (?)::timestamptz END) BETWEEN ? AND ?, FALSE)",
			typeOf(c.Field()),
			jsonText(c.Field()),
			timestampShape,
			jsonText(c.Field()),
			timestampLiteral(c.From()),
			timestampLiteral(c.Until()),
		), nil

	case docstore.IDMintedSince:
		scheme := c.Scheme()
		if scheme == nil {
			return nil, docstore.ErrInvalidFilter
		}
		return goqu.L(
			`COALESCE(? ~ ? AND ? COLLATE "C" >= ?, FALSE)`,
			goqu.C(colID),
			scheme.Pattern(),
			goqu.C(colID),
			scheme.LowerBound(c.From()),
		), nil

	default:
		return nil, errors.Join(docstore.ErrInvalidFilter, fmt.Errorf("unsupported condition %s", c.Kind()))
	}
}

func isIDField(field string) bool {
	return field == docstore.IDField
}

// jsonValue resolves a dotted path to a jsonb expression: data -> 'a' -> 'b'.
func jsonValue(field string) exp.LiteralExpression {
	segments := strings.Split(field, ".")
	expr := goqu.L("?", goqu.C(colData))

	for _, segment := range segments {
		expr = goqu.L(sqlJSONField, expr, segment)
	}

	return expr
}

// jsonText resolves a dotted path to a text expression: data -> 'a' ->> 'b'.
func jsonText(field string) exp.LiteralExpression {
	segments := strings.Split(field, ".")
	expr := goqu.L("?", goqu.C(colData))

	for i, segment := range segments {
		if i == len(segments)-1 {
			expr = goqu.L(sqlJSONFieldText, expr, segment)
			break
		}
		expr = goqu.L(sqlJSONField, expr, segment)
	}

	return expr
}

func typeOf(field string) exp.LiteralExpression {
	return goqu.L(sqlTypeOf, jsonValue(field))
}

func timestampLiteral(t time.Time) exp.LiteralExpression {
	return goqu.L(sqlCastTimestamp, t.UTC().Format(time.RFC3339Nano))
}

func (ds *DocumentStore) buildCountQuery(collection string, filter docstore.Filter) (sqlQueryString, error) {
	where, err := compileCondition(filter.Root())
	if err != nil {
		return "", errors.Join(docstore.ErrBuildingQueryFailed, err)
	}

	selectStmt := goqu.Dialect(dialectPostgres).
		From(goqu.T(collection)).
		Select(goqu.COUNT(goqu.Star())).
		Where(where)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(docstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (ds *DocumentStore) buildFindQuery(collection string, filter docstore.Filter, limit int) (sqlQueryString, error) {
	where, err := compileCondition(filter.Root())
	if err != nil {
		return "", errors.Join(docstore.ErrBuildingQueryFailed, err)
	}

	selectStmt := goqu.Dialect(dialectPostgres).
		From(goqu.T(collection)).
		Select(goqu.C(colID), goqu.L(castDataText)).
		Where(where).
		Order(goqu.C(colID).Asc())

	if limit > 0 {
		selectStmt = selectStmt.Limit(uint(limit))
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(docstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (ds *DocumentStore) buildDeleteQuery(collection string, filter docstore.Filter) (sqlQueryString, error) {
	where, err := compileCondition(filter.Root())
	if err != nil {
		return "", errors.Join(docstore.ErrBuildingQueryFailed, err)
	}

	deleteStmt := goqu.Dialect(dialectPostgres).
		Delete(goqu.T(collection)).
		Where(where)

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(docstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (ds *DocumentStore) buildIDsQuery(collection string) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(goqu.T(collection)).
		Select(goqu.C(colID)).
		Order(goqu.C(colID).Asc())

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(docstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (ds *DocumentStore) buildInsertQuery(collection string, docs []docstore.Document) (sqlQueryString, error) {
	rows := make([][]any, 0, len(docs))

	for _, doc := range docs {
		id := doc.ID()
		if id == "" {
			id = ds.idScheme.NewID(time.Now())
		}

		payload, marshalErr := doc.Without(docstore.IDField).MarshalJSON()
		if marshalErr != nil {
			return "", errors.Join(docstore.ErrBuildingQueryFailed, marshalErr)
		}

		rows = append(rows, []any{id, goqu.L(sqlCastJsonb, string(payload))})
	}

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(goqu.T(collection)).
		Cols(colID, colData).
		Vals(rows...)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(docstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func buildCreateTableStatements(collection string) []sqlQueryString {
	table := pgx.Identifier{collection}.Sanitize()
	index := pgx.Identifier{collection + "_data_gin"}.Sanitize()

	return []sqlQueryString{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s text PRIMARY KEY, %s jsonb NOT NULL)", table, colID, colData),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING gin (%s jsonb_path_ops)", index, table, colData),
	}
}

func buildDropTableStatement(collection string) sqlQueryString {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{collection}.Sanitize())
}
