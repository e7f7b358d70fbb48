package mysql

// Users are stored one row per user; the search history is a versioned JSON
// document so the whole record survives a round trip without a table per
// nested type. Upsert touches exactly one row.

const createUsersSQL = `
CREATE TABLE IF NOT EXISTS users (
  id             BIGINT       NOT NULL,
  first_name     VARCHAR(255) NOT NULL DEFAULT '',
  last_name      VARCHAR(255) NOT NULL DEFAULT '',
  username       VARCHAR(255) NOT NULL DEFAULT '',
  schema_version INT          NOT NULL,
  searches       JSON         NOT NULL,
  updated_at     TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (id)
)
`

const upsertUserSQL = `
INSERT INTO users
  (id, first_name, last_name, username, schema_version, searches)
VALUES
  (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  first_name     = VALUES(first_name),
  last_name      = VALUES(last_name),
  username       = VALUES(username),
  schema_version = VALUES(schema_version),
  searches       = VALUES(searches),
  updated_at     = CURRENT_TIMESTAMP
`

const findUserSQL = `
SELECT id, first_name, last_name, username, schema_version, searches
FROM users
WHERE id = ?
`

const loadAllUsersSQL = `
SELECT id, first_name, last_name, username, schema_version, searches
FROM users
ORDER BY id
`
