package store

// Decimals are stored as TEXT so they round-trip exactly; timestamps
// as integer Unix milliseconds.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id INTEGER PRIMARY KEY,
	order_time INTEGER NOT NULL,
	side TEXT NOT NULL,
	currency TEXT NOT NULL,
	amount TEXT NOT NULL,
	price TEXT NOT NULL,
	fee TEXT NOT NULL,
	tax TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS fifo_lots (
	currency TEXT NOT NULL,
	acquired_at INTEGER NOT NULL,
	cost TEXT NOT NULL,
	amount TEXT NOT NULL,
	PRIMARY KEY (currency, acquired_at)
);

CREATE TABLE IF NOT EXISTS average_costs (
	currency TEXT PRIMARY KEY,
	cost TEXT NOT NULL,
	amount TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS wallet (
	currency TEXT PRIMARY KEY,
	balance TEXT NOT NULL
);
`
