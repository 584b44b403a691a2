package vault

import (
	"log"
	"time"

	"github.com/fsctl/sealbox/pkg/cryptography"
	"github.com/fsctl/sealbox/pkg/sealbox"
)

// Rekey opens every container in the vault with oldPassword and reseals it
// under newPassword inside a single transaction: either every blob ends up
// under the new password or the vault is left exactly as it was. Returns
// the number of blobs rekeyed. If any container fails to open, usually with
// sealbox.ErrIncorrectPassword, that error is returned and nothing is
// committed.
func (v *Vault) Rekey(oldPassword []byte, newPassword []byte) (int, error) {
	tx, err := v.dbConn.Begin()
	if err != nil {
		log.Printf("Error: Rekey: %v", err)
		return 0, err
	}
	// no-op once Commit has succeeded
	defer tx.Rollback()

	// Read all rows up front; resealing takes one KDF derivation per blob
	// and should not hold a result set open meanwhile.
	rows, err := tx.Query("select id, container from blobs")
	if err != nil {
		log.Printf("Error: Rekey: %v", err)
		return 0, err
	}

	type sealedRow struct {
		id        int64
		container []byte
	}
	sealedRows := make([]sealedRow, 0)
	for rows.Next() {
		var row sealedRow
		if err = rows.Scan(&row.id, &row.container); err != nil {
			log.Printf("Error: Rekey: %v", err)
			rows.Close()
			return 0, err
		}
		sealedRows = append(sealedRows, row)
	}
	if err = rows.Err(); err != nil {
		log.Printf("Error: Rekey: %v", err)
		rows.Close()
		return 0, err
	}
	rows.Close()

	stmt, err := tx.Prepare("update blobs set container = ?, length = ?, updated_at = ? where id = ?")
	if err != nil {
		log.Printf("Error: Rekey: %v", err)
		return 0, err
	}
	defer stmt.Close()

	for _, row := range sealedRows {
		plaintext, err := sealbox.Open(row.container, oldPassword)
		if err != nil {
			return 0, err
		}

		resealed, err := sealbox.Seal(plaintext, newPassword)
		cryptography.ZeroBytes(plaintext)
		if err != nil {
			return 0, err
		}

		if _, err = stmt.Exec(resealed, len(resealed), time.Now().Unix(), row.id); err != nil {
			log.Printf("Error: Rekey: %v", err)
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		log.Printf("Error: Rekey: %v", err)
		return 0, err
	}

	return len(sealedRows), nil
}
