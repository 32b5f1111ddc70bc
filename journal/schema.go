package journal

const Schema = `
CREATE TABLE IF NOT EXISTS validations (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	entry_price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	risk_percent REAL NOT NULL,
	lot_size REAL NOT NULL,
	risk_amount REAL NOT NULL,
	pip_distance REAL NOT NULL,
	severity TEXT NOT NULL,
	can_execute INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS violations (
	validation_id TEXT NOT NULL REFERENCES validations(id),
	kind TEXT NOT NULL,
	code TEXT NOT NULL,
	message TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	risk_percent REAL NOT NULL,
	within_risk INTEGER NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	realized_pl REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS drawdown (
	account_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	daily_drawdown REAL NOT NULL,
	max_daily_drawdown REAL NOT NULL,
	breached INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS discipline_scores (
	account_id TEXT NOT NULL,
	day TEXT NOT NULL,
	total INTEGER NOT NULL,
	grade TEXT NOT NULL,
	violations INTEGER NOT NULL,
	risk_management INTEGER NOT NULL,
	drawdown INTEGER NOT NULL,
	trading_quality INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (account_id, day)
);

CREATE INDEX IF NOT EXISTS idx_validations_account_time ON validations(account_id, created_at);
CREATE INDEX IF NOT EXISTS idx_violations_validation ON violations(validation_id);
CREATE INDEX IF NOT EXISTS idx_trades_account_close ON trades(account_id, close_time);
CREATE INDEX IF NOT EXISTS idx_drawdown_account_time ON drawdown(account_id, time);
`
