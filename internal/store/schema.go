package store

// schemaSQL is shared by sqlite and postgres; timestamps are UTC text and
// amounts exact decimal strings.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS expenses (
    id                   TEXT PRIMARY KEY,
    family_id            TEXT NOT NULL,
    owner_id             TEXT NOT NULL DEFAULT '',
    amount               TEXT NOT NULL,
    category             TEXT,
    description          TEXT,
    spent_at             TEXT,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS savings_goals (
    id                   TEXT PRIMARY KEY,
    family_id            TEXT NOT NULL,
    name                 TEXT NOT NULL DEFAULT '',
    target_amount        TEXT NOT NULL,
    current_amount       TEXT NOT NULL,
    target_date          TEXT,
    category             TEXT,
    status               TEXT NOT NULL,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS predictions (
    id                   TEXT PRIMARY KEY,
    family_id            TEXT NOT NULL,
    predicted_amount     TEXT NOT NULL,
    predicted_month      INTEGER NOT NULL,
    predicted_year       INTEGER NOT NULL,
    category             TEXT,
    confidence           REAL NOT NULL,
    algorithm            TEXT NOT NULL,
    reasoning            TEXT,
    created_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_expenses_family_time ON expenses(family_id, spent_at);
CREATE INDEX IF NOT EXISTS idx_goals_family ON savings_goals(family_id);
CREATE INDEX IF NOT EXISTS idx_predictions_family ON predictions(family_id, predicted_year, predicted_month);
`
