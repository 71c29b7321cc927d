package mysql

// Schema is applied by Migrate. Statements are idempotent so a restart can
// always re-run them.
var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS booking_records (
  source_id        VARCHAR(128) NOT NULL PRIMARY KEY,
  booking_number   VARCHAR(128) NOT NULL,
  status           VARCHAR(32)  NOT NULL,
  hotel_id         VARCHAR(128) NOT NULL,
  room_id          VARCHAR(128) NOT NULL,
  rate_plan_id     VARCHAR(128) NULL,
  guest_name       VARCHAR(255) NOT NULL,
  guest_email      VARCHAR(255) NULL,
  guest_phone      VARCHAR(64)  NULL,
  guests           INT NOT NULL DEFAULT 0,
  adults           INT NOT NULL DEFAULT 0,
  children         INT NOT NULL DEFAULT 0,
  check_in         DATE NOT NULL,
  check_out        DATE NOT NULL,
  special_requests TEXT NULL,
  total_price      DECIMAL(14,4) NOT NULL DEFAULT 0,
  currency         VARCHAR(8) NOT NULL DEFAULT '',
  payment_status   VARCHAR(64) NULL,
  payment_method   VARCHAR(64) NULL,
  booked_at        DATETIME NULL,
  cancelled_at     DATETIME NULL,
  raw              JSON NULL,
  updated_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS sync_runs (
  run_id            CHAR(36) NOT NULL PRIMARY KEY,
  country           VARCHAR(8) NOT NULL DEFAULT '',
  started_at        DATETIME NOT NULL,
  finished_at       DATETIME NOT NULL,
  regions_processed INT NOT NULL DEFAULT 0,
  regions_skipped   INT NOT NULL DEFAULT 0,
  regions_failed    INT NOT NULL DEFAULT 0,
  hotels_processed  INT NOT NULL DEFAULT 0,
  hotels_failed     INT NOT NULL DEFAULT 0
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS sync_failures (
  id        BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  run_id    CHAR(36) NOT NULL,
  kind      VARCHAR(16) NOT NULL,
  source_id VARCHAR(128) NOT NULL DEFAULT '',
  reason    TEXT NOT NULL,
  KEY idx_sync_failures_run (run_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Bookings are snapshots keyed by the vendor id; the latest write wins so
// a later status fetch overwrites an earlier one.
const upsertBookingSQL = `
INSERT INTO booking_records
  (source_id, booking_number, status, hotel_id, room_id, rate_plan_id,
   guest_name, guest_email, guest_phone, guests, adults, children,
   check_in, check_out, special_requests, total_price, currency,
   payment_status, payment_method, booked_at, cancelled_at, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  booking_number   = VALUES(booking_number),
  status           = VALUES(status),
  hotel_id         = VALUES(hotel_id),
  room_id          = VALUES(room_id),
  rate_plan_id     = VALUES(rate_plan_id),
  guest_name       = VALUES(guest_name),
  guest_email      = VALUES(guest_email),
  guest_phone      = VALUES(guest_phone),
  guests           = VALUES(guests),
  adults           = VALUES(adults),
  children         = VALUES(children),
  check_in         = VALUES(check_in),
  check_out        = VALUES(check_out),
  special_requests = VALUES(special_requests),
  total_price      = VALUES(total_price),
  currency         = VALUES(currency),
  payment_status   = VALUES(payment_status),
  payment_method   = VALUES(payment_method),
  booked_at        = VALUES(booked_at),
  cancelled_at     = VALUES(cancelled_at),
  raw              = VALUES(raw)
`

const insertSyncRunSQL = `
INSERT INTO sync_runs
  (run_id, country, started_at, finished_at,
   regions_processed, regions_skipped, regions_failed,
   hotels_processed, hotels_failed)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  finished_at       = VALUES(finished_at),
  regions_processed = VALUES(regions_processed),
  regions_skipped   = VALUES(regions_skipped),
  regions_failed    = VALUES(regions_failed),
  hotels_processed  = VALUES(hotels_processed),
  hotels_failed     = VALUES(hotels_failed)
`

const insertFailuresPrefix = "INSERT INTO sync_failures (run_id, kind, source_id, reason) VALUES "

const recentRunsSQL = `
SELECT run_id, country, started_at, finished_at,
       regions_processed, regions_skipped, regions_failed,
       hotels_processed, hotels_failed
FROM sync_runs
ORDER BY started_at DESC
LIMIT ?
`

const runFailuresSQL = `
SELECT kind, source_id, reason
FROM sync_failures
WHERE run_id = ?
ORDER BY id
`
