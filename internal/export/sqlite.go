package export

import (
	"context"
	"database/sql"
	"os"

	_ "modernc.org/sqlite"

	"github.com/John-Robertt/sudocwarn/internal/domain"
	"github.com/John-Robertt/sudocwarn/internal/infra/fsx"
)

// TableName 是 SQLite 输出中的表名。
const TableName = "warnings"

// 列与 CSV 表头一致；seq 保留生成顺序（文件排序，再按行号）。
const schema = `CREATE TABLE ` + TableName + ` (
	seq             INTEGER PRIMARY KEY,
	type_warn       TEXT    NOT NULL,
	fichier         TEXT    NOT NULL,
	titre           TEXT    NOT NULL,
	code_barres     TEXT    NOT NULL,
	notice_liee     TEXT    NOT NULL,
	similaire       TEXT    NOT NULL,
	cause           TEXT    NOT NULL,
	ligne_fichier   INTEGER NOT NULL,
	message_complet TEXT    NOT NULL
)`

const insertSQL = `INSERT INTO ` + TableName + ` (
	seq, type_warn, fichier, titre, code_barres, notice_liee, similaire, cause, ligne_fichier, message_complet
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// WriteSQLite 把 records 写入全新的 SQLite 文件并原子替换 path。
func WriteSQLite(ctx context.Context, path string, records []domain.Record) error {
	return fsx.ReplaceWith(path, func(tmp *os.File) error {
		return fillSQLite(ctx, tmp.Name(), records)
	})
}

func fillSQLite(ctx context.Context, dbPath string, records []domain.Record) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		f := r.Fields
		if _, err := stmt.ExecContext(ctx,
			i+1, r.Type, r.File, f.Title, f.Barcode, f.LinkedID, f.SimilarID, f.Cause, r.Line, r.Message,
		); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return db.Close()
}
