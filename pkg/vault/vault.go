// Package vault abstracts operations on the local sqlite3 db that keeps
// named sealed containers at rest
package vault

import (
	"database/sql"
	"errors"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// schemaVersion is written into vault_info when the tables are created so
// that later schema changes can migrate older vault files
const schemaVersion = 1

var (
	// ErrBlobNotFound is returned when no blob row has the requested name
	ErrBlobNotFound = errors.New("no blob with that name")

	// ErrDuplicateBlob is returned by InsertBlob when the name is taken
	ErrDuplicateBlob = errors.New("a blob with that name already exists")
)

type Vault struct {
	dbConn *sql.DB
}

// BlobInfo describes one stored blob without its container bytes
type BlobInfo struct {
	Name        string
	Length      int64
	CreatedUnix int64
	UpdatedUnix int64
}

func NewVault(dbFilePath string) (*Vault, error) {
	db, err := sql.Open("sqlite3", dbFilePath)
	if err != nil {
		log.Printf("Error: NewVault: %v", err)
		return nil, err
	}

	return &Vault{
		dbConn: db,
	}, nil
}

func (v *Vault) Close() {
	v.dbConn.Close()
}

func (v *Vault) querySingleRowCount(sql string) (int, error) {
	rows, err := v.dbConn.Query(sql)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var cnt int
	for rows.Next() {
		err = rows.Scan(&cnt)
		if err != nil {
			return 0, err
		} else {
			break
		}
	}
	err = rows.Err()
	if err != nil {
		return 0, err
	}
	return cnt, nil
}

func (v *Vault) DropAllTables() error {
	sqlStmt := `
	drop table if exists blobs;
	drop table if exists vault_info;
	`
	_, err := v.dbConn.Exec(sqlStmt)
	if err != nil {
		log.Printf("%q: %s\n", err, sqlStmt)
	}
	return err
}

func (v *Vault) CreateTablesIfNotExist() error {
	sql := "SELECT count(*) FROM sqlite_master WHERE type='table' AND (name='blobs' OR name='vault_info');"
	cnt, err := v.querySingleRowCount(sql)
	if err != nil {
		log.Printf("%q: %s\n", err, sql)
		return err
	}

	if cnt != 2 {
		err = v.createTables()
		if err != nil {
			log.Printf("Error: could not create tables")
			return err
		}
	}

	return nil
}

func (v *Vault) createTables() error {
	sqlStmt := `
	drop table if exists vault_info;
	create table vault_info (
		id integer not null primary key,
		version integer not null,     /* schema version for future migrations */
		created_at integer not null   /* epoch seconds when vault was created */
	);

	drop table if exists blobs;
	create table blobs (
		id integer not null primary key autoincrement,
		name text not null unique,    /* caller-chosen identifier, stored in the clear */
		container blob not null,      /* sealed container bytes, opaque to this package */
		length integer not null,      /* len(container), for listing without reading blobs */
		created_at integer not null,  /* epoch seconds */
		updated_at integer not null   /* epoch seconds */
	);
	create index idx_blob_names ON blobs (name);
	`
	_, err := v.dbConn.Exec(sqlStmt)
	if err != nil {
		log.Printf("%q: %s\n", err, sqlStmt)
		return err
	}

	stmt, err := v.dbConn.Prepare("insert into vault_info (id, version, created_at) values (1, ?, ?)")
	if err != nil {
		log.Printf("Error: createTables: %v", err)
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(schemaVersion, time.Now().Unix())
	if err != nil {
		log.Printf("Error: createTables: %v", err)
		return err
	}

	return nil
}

// Version reports the schema version recorded when this vault file was
// created
func (v *Vault) Version() (int, error) {
	stmt, err := v.dbConn.Prepare("select version from vault_info where id = 1")
	if err != nil {
		log.Printf("Error: Version: %v", err)
		return 0, err
	}
	defer stmt.Close()

	var version int
	err = stmt.QueryRow().Scan(&version)
	if err != nil {
		log.Printf("Error: Version: %v", err)
		return 0, err
	}
	return version, nil
}

// HasBlob reports whether a blob named name is stored in the vault
func (v *Vault) HasBlob(name string) (bool, error) {
	stmt, err := v.dbConn.Prepare("select count(*) from blobs where name = ?")
	if err != nil {
		log.Printf("Error: HasBlob: %v", err)
		return false, err
	}
	defer stmt.Close()

	var cnt int
	err = stmt.QueryRow(name).Scan(&cnt)
	if err != nil {
		log.Printf("Error: HasBlob: %v", err)
		return false, err
	}
	return cnt > 0, nil
}

// InsertBlob stores container under name. The container bytes are treated
// as opaque; sealing happens upstream of this package.
func (v *Vault) InsertBlob(name string, container []byte) error {
	hasBlob, err := v.HasBlob(name)
	if err != nil {
		return err
	}
	if hasBlob {
		return ErrDuplicateBlob
	}

	stmt, err := v.dbConn.Prepare("insert into blobs (name, container, length, created_at, updated_at) values (?, ?, ?, ?, ?)")
	if err != nil {
		log.Printf("Error: InsertBlob: %v", err)
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	_, err = stmt.Exec(name, container, len(container), now, now)
	if err != nil {
		log.Printf("Error: InsertBlob: %v", err)
		return err
	}
	return nil
}

// GetBlob returns the container bytes stored under name
func (v *Vault) GetBlob(name string) ([]byte, error) {
	stmt, err := v.dbConn.Prepare("select container from blobs where name = ?")
	if err != nil {
		log.Printf("Error: GetBlob: %v", err)
		return nil, err
	}
	defer stmt.Close()

	var container []byte
	err = stmt.QueryRow(name).Scan(&container)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlobNotFound
	} else if err != nil {
		log.Printf("Error: GetBlob: %v", err)
		return nil, err
	}
	return container, nil
}

// ReplaceBlob overwrites the container stored under name
func (v *Vault) ReplaceBlob(name string, container []byte) error {
	stmt, err := v.dbConn.Prepare("update blobs set container = ?, length = ?, updated_at = ? where name = ?")
	if err != nil {
		log.Printf("Error: ReplaceBlob: %v", err)
		return err
	}
	defer stmt.Close()

	result, err := stmt.Exec(container, len(container), time.Now().Unix(), name)
	if err != nil {
		log.Printf("Error: ReplaceBlob: %v", err)
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Printf("Error: ReplaceBlob: %v", err)
		return err
	}
	if rowsAffected == 0 {
		return ErrBlobNotFound
	}
	return nil
}

// DeleteBlob removes the blob stored under name
func (v *Vault) DeleteBlob(name string) error {
	stmt, err := v.dbConn.Prepare("delete from blobs where name = ?")
	if err != nil {
		log.Printf("Error: DeleteBlob: %v", err)
		return err
	}
	defer stmt.Close()

	result, err := stmt.Exec(name)
	if err != nil {
		log.Printf("Error: DeleteBlob: %v", err)
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Printf("Error: DeleteBlob: %v", err)
		return err
	}
	if rowsAffected == 0 {
		return ErrBlobNotFound
	}
	return nil
}

// GetAllBlobInfos lists every stored blob (name and sizes only, no
// container bytes), sorted by name
func (v *Vault) GetAllBlobInfos() ([]BlobInfo, error) {
	rows, err := v.dbConn.Query("select name, length, created_at, updated_at from blobs order by name")
	if err != nil {
		log.Printf("Error: GetAllBlobInfos: %v", err)
		return nil, err
	}
	defer rows.Close()

	blobInfos := make([]BlobInfo, 0)
	for rows.Next() {
		var info BlobInfo
		err = rows.Scan(&info.Name, &info.Length, &info.CreatedUnix, &info.UpdatedUnix)
		if err != nil {
			log.Printf("Error: GetAllBlobInfos: %v", err)
			return nil, err
		}
		blobInfos = append(blobInfos, info)
	}
	err = rows.Err()
	if err != nil {
		log.Printf("Error: GetAllBlobInfos: %v", err)
		return nil, err
	}

	return blobInfos, nil
}
