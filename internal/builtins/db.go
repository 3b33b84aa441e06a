package builtins

import (
	"database/sql"
	"fmt"

	"crisp/internal/value"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// dbRegistry maps integer handles to open connections. It is owned by one
// Environment's registration, not shared process state.
type dbRegistry struct {
	conns  map[int32]*sql.DB
	nextID int32
}

func registerDB(env *value.Environment) {
	r := &dbRegistry{conns: make(map[int32]*sql.DB)}

	natives := []struct {
		name string
		fn   value.NativeFn
	}{
		{"db-connect", r.connect},
		{"db-query", r.query},
		{"db-exec", r.exec},
		{"db-close", r.close},
	}
	for _, n := range natives {
		env.RegisterFunction(n.name, &value.Native{Name: n.name, Fn: n.fn})
	}
}

func evalString(ctx value.Context, fnName string, arg value.Value) (string, error) {
	evaluated, err := ctx.Eval(arg)
	if err != nil {
		return "", err
	}
	s, ok := evaluated.(*value.String)
	if !ok {
		return "", value.Argsf(fnName, "expected a string, got %s", evaluated.Type())
	}
	return s.Value, nil
}

func (r *dbRegistry) handleArg(ctx value.Context, fnName string, arg value.Value) (*sql.DB, int32, error) {
	id, err := evalInteger(ctx, fnName, arg)
	if err != nil {
		return nil, 0, err
	}
	db, ok := r.conns[id]
	if !ok {
		return nil, 0, value.Argsf(fnName, "invalid connection handle %d", id)
	}
	return db, id, nil
}

// queryParams evaluates trailing arguments into database/sql parameters.
func queryParams(ctx value.Context, fnName string, args []value.Value) ([]interface{}, error) {
	params := make([]interface{}, 0, len(args))
	for _, arg := range args {
		evaluated, err := ctx.Eval(arg)
		if err != nil {
			return nil, err
		}
		switch v := evaluated.(type) {
		case *value.Nil:
			params = append(params, nil)
		case *value.True:
			params = append(params, true)
		case *value.Integer:
			params = append(params, int64(v.Value))
		case *value.String:
			params = append(params, v.Value)
		default:
			return nil, value.Argsf(fnName, "cannot pass %s as a query parameter", evaluated.Type())
		}
	}
	return params, nil
}

func cellToValue(cell interface{}) value.Value {
	switch v := cell.(type) {
	case nil:
		return value.NIL
	case bool:
		if v {
			return value.TRUE
		}
		return value.NIL
	case int64:
		return &value.Integer{Value: int32(v)}
	case []byte:
		return &value.String{Value: string(v)}
	case string:
		return &value.String{Value: v}
	default:
		return &value.String{Value: fmt.Sprintf("%v", v)}
	}
}

func (r *dbRegistry) connect(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, value.Argsf("db-connect", "expected a driver and a connection string, got %d arguments", len(args))
	}
	driver, err := evalString(ctx, "db-connect", args[0])
	if err != nil {
		return nil, err
	}
	dsn, err := evalString(ctx, "db-connect", args[1])
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, value.Argsf("db-connect", "failed to open connection: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, value.Argsf("db-connect", "failed to ping database: %v", err)
	}

	r.nextID++
	r.conns[r.nextID] = db
	return &value.Integer{Value: r.nextID}, nil
}

func (r *dbRegistry) query(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, value.Argsf("db-query", "expected a handle and a statement, got %d arguments", len(args))
	}
	db, _, err := r.handleArg(ctx, "db-query", args[0])
	if err != nil {
		return nil, err
	}
	stmt, err := evalString(ctx, "db-query", args[1])
	if err != nil {
		return nil, err
	}
	params, err := queryParams(ctx, "db-query", args[2:])
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(stmt, params...)
	if err != nil {
		return nil, value.Argsf("db-query", "query failed: %v", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, value.Argsf("db-query", "failed to read columns: %v", err)
	}

	result := &value.List{}
	for rows.Next() {
		cells := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, value.Argsf("db-query", "scan failed: %v", err)
		}

		row := &value.List{Elements: make([]value.Value, 0, len(cells))}
		for _, cell := range cells {
			row.Elements = append(row.Elements, cellToValue(cell))
		}
		result.Elements = append(result.Elements, row)
	}
	if err := rows.Err(); err != nil {
		return nil, value.Argsf("db-query", "row iteration failed: %v", err)
	}

	return result, nil
}

func (r *dbRegistry) exec(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, value.Argsf("db-exec", "expected a handle and a statement, got %d arguments", len(args))
	}
	db, _, err := r.handleArg(ctx, "db-exec", args[0])
	if err != nil {
		return nil, err
	}
	stmt, err := evalString(ctx, "db-exec", args[1])
	if err != nil {
		return nil, err
	}
	params, err := queryParams(ctx, "db-exec", args[2:])
	if err != nil {
		return nil, err
	}

	result, err := db.Exec(stmt, params...)
	if err != nil {
		return nil, value.Argsf("db-exec", "exec failed: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, value.Argsf("db-exec", "rows affected unavailable: %v", err)
	}
	return &value.Integer{Value: int32(affected)}, nil
}

func (r *dbRegistry) close(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, value.Argsf("db-close", "expected a handle, got %d arguments", len(args))
	}
	db, id, err := r.handleArg(ctx, "db-close", args[0])
	if err != nil {
		return nil, err
	}
	delete(r.conns, id)
	if err := db.Close(); err != nil {
		return nil, value.Argsf("db-close", "close failed: %v", err)
	}
	return value.NIL, nil
}
