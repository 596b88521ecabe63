package sqlite

// schema defines the shard layout. Every monthly shard, news or feed,
// carries the same tables.
const schema = `
CREATE TABLE IF NOT EXISTS news_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    source_id TEXT NOT NULL,
    url TEXT NOT NULL DEFAULT '',
    mobile_url TEXT NOT NULL DEFAULT '',
    rank INTEGER NOT NULL,
    rank_timeline TEXT NOT NULL DEFAULT '[]',
    first_seen INTEGER NOT NULL,
    last_seen INTEGER NOT NULL,
    count INTEGER NOT NULL DEFAULT 1,
    importance TEXT NOT NULL DEFAULT '',
    normalized_title TEXT NOT NULL DEFAULT '',
    has_been_pushed INTEGER NOT NULL DEFAULT 0,
    UNIQUE(title, source_id)
);

CREATE INDEX IF NOT EXISTS idx_news_items_normalized ON news_items(normalized_title);
CREATE INDEX IF NOT EXISTS idx_news_items_pushed ON news_items(has_been_pushed);
CREATE INDEX IF NOT EXISTS idx_news_items_importance ON news_items(importance);
CREATE INDEX IF NOT EXISTS idx_news_items_source ON news_items(source_id, last_seen);

CREATE TABLE IF NOT EXISTS sources (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS crawls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    crawl_time INTEGER NOT NULL,
    date TEXT NOT NULL,
    UNIQUE(crawl_time, date)
);

CREATE TABLE IF NOT EXISTS push_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    report_kind TEXT NOT NULL,
    pushed_at INTEGER NOT NULL,
    date TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_push_records_date ON push_records(date);
`
