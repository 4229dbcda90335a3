/*
Package types defines the core data types shared across towerctl.

The lifecycle engine works over a small vocabulary:

  - InstallationState: absent, configured-current or configured-stale,
    recomputed from disk and the package inventory on every run.
  - Role and Credential: generated passwords for the admin account, the
    message broker and the database. A Credential is created once and then
    only read.
  - Record: the single per-host persisted record holding the secret key and
    all role credentials. See package storage.
  - Classification: an InstallationState plus the versions and reason that
    produced it, used for logging.
  - Package: an installed OS package as reported by package packages.

None of these types carry behaviour beyond small accessors; the components
that own them live in their own packages.
*/
package types
