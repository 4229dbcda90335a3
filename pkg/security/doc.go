/*
Package security generates and reconciles the platform's secrets.

Two kinds of secret are managed here:

Role credentials (admin, message-broker, database) are generated lazily by
CredentialStore.GetOrCreate and stored in the host's credential record. A
credential is generated at most once per role; later calls read it back
unchanged. Passwords come from crypto/rand, are base64 encoded without
padding, and have "+" and "/" replaced with "-" and "_" so they can be
placed in an inventory or shell context without quoting trouble.

The secret key is special: the platform reads it from a plaintext file, and
towerctl keeps a copy in the record so it can detect a file that was
deleted or replaced. ReconcileSecretKey establishes the file and the record
as the same value:

	record has key? ── yes ──▶ write record key to file
	      │
	      no
	      ▼
	generate key ─▶ write file ─▶ read file back ─▶ store in record

ClearSecretKey is the rollback half: after a failed setup run the record key
is emptied so the host can never be classified as configured on the next
run.
*/
package security
