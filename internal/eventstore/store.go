package eventstore

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/repopulse/repopulse/internal/contract"
	"github.com/repopulse/repopulse/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names for the persistent event cache.
const (
	eventsTable       = "repopulse_events"
	pullRequestsTable = "repopulse_pull_requests"
	issuesTable       = "repopulse_issues"
)

// EventStoreImpl handles durable storage of fetched repository activity
// using various database backends.
type EventStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
	connStr    string
}

var _ contract.EventStore = &EventStoreImpl{} // Compile-time check

// NewEventStore initializes and returns a new EventStore based on the backend type.
func NewEventStore(backend schema.DatabaseBackend, connStr string) (contract.EventStore, error) {
	if backend == schema.NoneBackend {
		// Persistence disabled, every store method becomes a no-op
		return &EventStoreImpl{backend: backend, connStr: connStr}, nil
	}

	db, driverName, err := openBackendDB(backend, connStr, GetEventsDBFilePath(), "event cache")
	if err != nil {
		return nil, err
	}

	if err := createEventTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create event cache tables: %w", err)
	}

	return &EventStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverName,
		connStr:    connStr,
	}, nil
}

// createEventTables creates the event cache tables.
func createEventTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{eventsTable, getCreateEventsQuery(backend)},
		{pullRequestsTable, getCreatePullRequestsQuery(backend)},
		{issuesTable, getCreateIssuesQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}

	return nil
}

// getCreateEventsQuery returns the CREATE TABLE query for repopulse_events.
func getCreateEventsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(eventsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		// Payload is MEDIUMTEXT because GitHub event payloads can exceed
		// the 64KB TEXT limit.
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				event_id VARCHAR(64) NOT NULL,
				repo VARCHAR(255) NOT NULL,
				event_type VARCHAR(64) NOT NULL,
				actor VARCHAR(255) NOT NULL,
				created_at DATETIME(6) NOT NULL,
				payload MEDIUMTEXT,
				PRIMARY KEY (event_id, created_at)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				event_id TEXT NOT NULL,
				repo TEXT NOT NULL,
				event_type TEXT NOT NULL,
				actor TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				payload TEXT,
				PRIMARY KEY (event_id, created_at)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				event_id TEXT NOT NULL,
				repo TEXT NOT NULL,
				event_type TEXT NOT NULL,
				actor TEXT NOT NULL,
				created_at TEXT NOT NULL,
				payload TEXT,
				PRIMARY KEY (event_id, created_at)
			);
		`, quotedTableName)
	}
}

// getCreatePullRequestsQuery returns the CREATE TABLE query for repopulse_pull_requests.
func getCreatePullRequestsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(pullRequestsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				repo VARCHAR(255) NOT NULL,
				pr_number INT NOT NULL,
				pr_id BIGINT NOT NULL,
				title TEXT NOT NULL,
				author VARCHAR(255) NOT NULL,
				state VARCHAR(32) NOT NULL,
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL,
				merged_at DATETIME(6),
				additions INT NOT NULL,
				deletions INT NOT NULL,
				review_count INT NOT NULL,
				comment_count INT NOT NULL,
				PRIMARY KEY (repo, pr_number)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				repo TEXT NOT NULL,
				pr_number INT NOT NULL,
				pr_id BIGINT NOT NULL,
				title TEXT NOT NULL,
				author TEXT NOT NULL,
				state TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL,
				merged_at TIMESTAMPTZ,
				additions INT NOT NULL,
				deletions INT NOT NULL,
				review_count INT NOT NULL,
				comment_count INT NOT NULL,
				PRIMARY KEY (repo, pr_number)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				repo TEXT NOT NULL,
				pr_number INTEGER NOT NULL,
				pr_id INTEGER NOT NULL,
				title TEXT NOT NULL,
				author TEXT NOT NULL,
				state TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				merged_at TEXT,
				additions INTEGER NOT NULL,
				deletions INTEGER NOT NULL,
				review_count INTEGER NOT NULL,
				comment_count INTEGER NOT NULL,
				PRIMARY KEY (repo, pr_number)
			);
		`, quotedTableName)
	}
}

// getCreateIssuesQuery returns the CREATE TABLE query for repopulse_issues.
func getCreateIssuesQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(issuesTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				repo VARCHAR(255) NOT NULL,
				issue_number INT NOT NULL,
				issue_id BIGINT NOT NULL,
				title TEXT NOT NULL,
				author VARCHAR(255) NOT NULL,
				state VARCHAR(32) NOT NULL,
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL,
				closed_at DATETIME(6),
				comment_count INT NOT NULL,
				PRIMARY KEY (repo, issue_number)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				repo TEXT NOT NULL,
				issue_number INT NOT NULL,
				issue_id BIGINT NOT NULL,
				title TEXT NOT NULL,
				author TEXT NOT NULL,
				state TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL,
				closed_at TIMESTAMPTZ,
				comment_count INT NOT NULL,
				PRIMARY KEY (repo, issue_number)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				repo TEXT NOT NULL,
				issue_number INTEGER NOT NULL,
				issue_id INTEGER NOT NULL,
				title TEXT NOT NULL,
				author TEXT NOT NULL,
				state TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				closed_at TEXT,
				comment_count INTEGER NOT NULL,
				PRIMARY KEY (repo, issue_number)
			);
		`, quotedTableName)
	}
}

// getPlaceholder returns the parameter placeholder for the backend.
func (es *EventStoreImpl) getPlaceholder() string {
	switch es.backend {
	case schema.PostgreSQLBackend:
		return "$1"
	default: // SQLite and MySQL
		return "?"
	}
}

// getUpsertEventQuery returns the UPSERT query for a single event row.
func (es *EventStoreImpl) getUpsertEventQuery() string {
	quotedTableName := quoteTableName(eventsTable, es.backend)
	switch es.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (event_id, repo, event_type, actor, created_at, payload) VALUES (?, ?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE repo = new.repo, event_type = new.event_type, actor = new.actor, payload = new.payload`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (event_id, repo, event_type, actor, created_at, payload) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (event_id, created_at) DO UPDATE SET repo = EXCLUDED.repo, event_type = EXCLUDED.event_type, actor = EXCLUDED.actor, payload = EXCLUDED.payload`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (event_id, repo, event_type, actor, created_at, payload) VALUES (?, ?, ?, ?, ?, ?)`, quotedTableName)
	}
}

// getUpsertPullRequestQuery returns the UPSERT query for a single pull request row.
func (es *EventStoreImpl) getUpsertPullRequestQuery() string {
	quotedTableName := quoteTableName(pullRequestsTable, es.backend)
	switch es.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (repo, pr_number, pr_id, title, author, state, created_at, updated_at, merged_at, additions, deletions, review_count, comment_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE pr_id = new.pr_id, title = new.title, author = new.author, state = new.state,
				created_at = new.created_at, updated_at = new.updated_at, merged_at = new.merged_at,
				additions = new.additions, deletions = new.deletions, review_count = new.review_count, comment_count = new.comment_count`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (repo, pr_number, pr_id, title, author, state, created_at, updated_at, merged_at, additions, deletions, review_count, comment_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (repo, pr_number) DO UPDATE SET pr_id = EXCLUDED.pr_id, title = EXCLUDED.title, author = EXCLUDED.author, state = EXCLUDED.state,
				created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at, merged_at = EXCLUDED.merged_at,
				additions = EXCLUDED.additions, deletions = EXCLUDED.deletions, review_count = EXCLUDED.review_count, comment_count = EXCLUDED.comment_count`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (repo, pr_number, pr_id, title, author, state, created_at, updated_at, merged_at, additions, deletions, review_count, comment_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, quotedTableName)
	}
}

// getUpsertIssueQuery returns the UPSERT query for a single issue row.
func (es *EventStoreImpl) getUpsertIssueQuery() string {
	quotedTableName := quoteTableName(issuesTable, es.backend)
	switch es.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (repo, issue_number, issue_id, title, author, state, created_at, updated_at, closed_at, comment_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE issue_id = new.issue_id, title = new.title, author = new.author, state = new.state,
				created_at = new.created_at, updated_at = new.updated_at, closed_at = new.closed_at, comment_count = new.comment_count`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (repo, issue_number, issue_id, title, author, state, created_at, updated_at, closed_at, comment_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (repo, issue_number) DO UPDATE SET issue_id = EXCLUDED.issue_id, title = EXCLUDED.title, author = EXCLUDED.author, state = EXCLUDED.state,
				created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at, closed_at = EXCLUDED.closed_at, comment_count = EXCLUDED.comment_count`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (repo, issue_number, issue_id, title, author, state, created_at, updated_at, closed_at, comment_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, quotedTableName)
	}
}

// UpsertEvents inserts or replaces event rows and returns the number written.
// Events carry their repository, so a single batch may span repositories.
func (es *EventStoreImpl) UpsertEvents(events []schema.ActivityEvent) (int, error) {
	// Skip for NoneBackend
	if es.backend == schema.NoneBackend || es.db == nil {
		return 0, nil
	}

	query := es.getUpsertEventQuery()
	written := 0
	for _, ev := range events {
		var payload any
		if len(ev.Payload) > 0 {
			payload = string(ev.Payload)
		}
		_, err := es.db.Exec(query,
			ev.ID, ev.Repo.String(), string(ev.Type), ev.Actor,
			formatTime(ev.CreatedAt, es.backend), payload)
		if err != nil {
			return written, fmt.Errorf("failed to upsert event %s: %w", ev.ID, err)
		}
		written++
	}

	return written, nil
}

// UpsertPullRequests inserts or replaces pull request rows for a repository.
func (es *EventStoreImpl) UpsertPullRequests(repo schema.RepoRef, prs []schema.PullRequest) (int, error) {
	// Skip for NoneBackend
	if es.backend == schema.NoneBackend || es.db == nil {
		return 0, nil
	}

	query := es.getUpsertPullRequestQuery()
	written := 0
	for _, pr := range prs {
		_, err := es.db.Exec(query,
			repo.String(), pr.Number, pr.ID, pr.Title, pr.Author, pr.State,
			formatTime(pr.CreatedAt, es.backend), formatTime(pr.UpdatedAt, es.backend),
			formatNullableTime(pr.MergedAt, es.backend),
			pr.Additions, pr.Deletions, pr.ReviewCount, pr.CommentCount)
		if err != nil {
			return written, fmt.Errorf("failed to upsert pull request %s#%d: %w", repo, pr.Number, err)
		}
		written++
	}

	return written, nil
}

// UpsertIssues inserts or replaces issue rows for a repository.
func (es *EventStoreImpl) UpsertIssues(repo schema.RepoRef, issues []schema.Issue) (int, error) {
	// Skip for NoneBackend
	if es.backend == schema.NoneBackend || es.db == nil {
		return 0, nil
	}

	query := es.getUpsertIssueQuery()
	written := 0
	for _, issue := range issues {
		_, err := es.db.Exec(query,
			repo.String(), issue.Number, issue.ID, issue.Title, issue.Author, issue.State,
			formatTime(issue.CreatedAt, es.backend), formatTime(issue.UpdatedAt, es.backend),
			formatNullableTime(issue.ClosedAt, es.backend),
			issue.CommentCount)
		if err != nil {
			return written, fmt.Errorf("failed to upsert issue %s#%d: %w", repo, issue.Number, err)
		}
		written++
	}

	return written, nil
}

// SnapshotSince assembles everything cached for a repository at or after the
// given time. A zero since returns the full cached history.
func (es *EventStoreImpl) SnapshotSince(repo schema.RepoRef, since time.Time) (*schema.RepoSnapshot, error) {
	snapshot := &schema.RepoSnapshot{Repo: repo}

	// Empty snapshot for NoneBackend
	if es.backend == schema.NoneBackend || es.db == nil {
		return snapshot, nil
	}

	events, err := es.eventsSince(repo, since)
	if err != nil {
		return nil, err
	}

	prs, err := es.pullRequestsSince(repo, since)
	if err != nil {
		return nil, err
	}

	issues, err := es.issuesSince(repo, since)
	if err != nil {
		return nil, err
	}

	snapshot.Activities = events
	snapshot.PullRequests = prs
	snapshot.Issues = issues
	snapshot.FetchedAt = time.Now()
	return snapshot, nil
}

// eventsSince returns cached events for a repository, newest first.
// Time filtering happens after scanning. SQLite stores RFC3339Nano strings,
// and mixed sub-second precision does not compare lexicographically.
func (es *EventStoreImpl) eventsSince(repo schema.RepoRef, since time.Time) ([]schema.ActivityEvent, error) {
	quotedTableName := quoteTableName(eventsTable, es.backend)
	query := fmt.Sprintf(`SELECT event_id, event_type, actor, created_at, payload FROM %s WHERE repo = %s`,
		quotedTableName, es.getPlaceholder())

	rows, err := es.db.Query(query, repo.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query events for %s: %w", repo, err)
	}
	defer func() { _ = rows.Close() }()

	var events []schema.ActivityEvent
	for rows.Next() {
		var (
			ev         schema.ActivityEvent
			eventType  string
			createdRaw any
			payloadRaw any
		)
		if err := rows.Scan(&ev.ID, &eventType, &ev.Actor, &createdRaw, &payloadRaw); err != nil {
			return nil, fmt.Errorf("failed to scan event row for %s: %w", repo, err)
		}

		created, err := scanTimeValue(createdRaw, es.backend)
		if err != nil {
			return nil, err
		}
		if created.Before(since) {
			continue
		}

		ev.Repo = repo
		ev.Type = schema.EventType(eventType)
		ev.CreatedAt = created
		switch v := payloadRaw.(type) {
		case string:
			ev.Payload = []byte(v)
		case []byte:
			ev.Payload = append([]byte(nil), v...)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events for %s: %w", repo, err)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

// AllEvents returns every cached event across repositories, oldest first.
func (es *EventStoreImpl) AllEvents() ([]schema.ActivityEvent, error) {
	if es.backend == schema.NoneBackend || es.db == nil {
		return nil, nil
	}

	quotedTableName := quoteTableName(eventsTable, es.backend)
	query := fmt.Sprintf(`SELECT repo, event_id, event_type, actor, created_at, payload FROM %s`, quotedTableName)

	rows, err := es.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []schema.ActivityEvent
	for rows.Next() {
		var (
			ev         schema.ActivityEvent
			repoStr    string
			eventType  string
			createdRaw any
			payloadRaw any
		)
		if err := rows.Scan(&repoStr, &ev.ID, &eventType, &ev.Actor, &createdRaw, &payloadRaw); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}

		created, err := scanTimeValue(createdRaw, es.backend)
		if err != nil {
			return nil, err
		}

		repo, err := schema.ParseRepoRef(repoStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cached repo %q: %w", repoStr, err)
		}

		ev.Repo = repo
		ev.Type = schema.EventType(eventType)
		ev.CreatedAt = created
		switch v := payloadRaw.(type) {
		case string:
			ev.Payload = []byte(v)
		case []byte:
			ev.Payload = append([]byte(nil), v...)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events, nil
}

// pullRequestsSince returns cached pull requests updated at or after since,
// most recently updated first.
func (es *EventStoreImpl) pullRequestsSince(repo schema.RepoRef, since time.Time) ([]schema.PullRequest, error) {
	quotedTableName := quoteTableName(pullRequestsTable, es.backend)
	query := fmt.Sprintf(`SELECT pr_number, pr_id, title, author, state, created_at, updated_at, merged_at, additions, deletions, review_count, comment_count FROM %s WHERE repo = %s`,
		quotedTableName, es.getPlaceholder())

	rows, err := es.db.Query(query, repo.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query pull requests for %s: %w", repo, err)
	}
	defer func() { _ = rows.Close() }()

	var prs []schema.PullRequest
	for rows.Next() {
		var (
			pr         schema.PullRequest
			createdRaw any
			updatedRaw any
			mergedRaw  any
		)
		if err := rows.Scan(&pr.Number, &pr.ID, &pr.Title, &pr.Author, &pr.State,
			&createdRaw, &updatedRaw, &mergedRaw,
			&pr.Additions, &pr.Deletions, &pr.ReviewCount, &pr.CommentCount); err != nil {
			return nil, fmt.Errorf("failed to scan pull request row for %s: %w", repo, err)
		}

		if pr.CreatedAt, err = scanTimeValue(createdRaw, es.backend); err != nil {
			return nil, err
		}
		if pr.UpdatedAt, err = scanTimeValue(updatedRaw, es.backend); err != nil {
			return nil, err
		}
		if mergedRaw != nil {
			merged, err := scanTimeValue(mergedRaw, es.backend)
			if err != nil {
				return nil, err
			}
			pr.MergedAt = &merged
		}

		if pr.UpdatedAt.Before(since) {
			continue
		}
		prs = append(prs, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pull requests for %s: %w", repo, err)
	}

	sort.Slice(prs, func(i, j int) bool {
		return prs[i].UpdatedAt.After(prs[j].UpdatedAt)
	})
	return prs, nil
}

// issuesSince returns cached issues updated at or after since, most
// recently updated first.
func (es *EventStoreImpl) issuesSince(repo schema.RepoRef, since time.Time) ([]schema.Issue, error) {
	quotedTableName := quoteTableName(issuesTable, es.backend)
	query := fmt.Sprintf(`SELECT issue_number, issue_id, title, author, state, created_at, updated_at, closed_at, comment_count FROM %s WHERE repo = %s`,
		quotedTableName, es.getPlaceholder())

	rows, err := es.db.Query(query, repo.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query issues for %s: %w", repo, err)
	}
	defer func() { _ = rows.Close() }()

	var issues []schema.Issue
	for rows.Next() {
		var (
			issue      schema.Issue
			createdRaw any
			updatedRaw any
			closedRaw  any
		)
		if err := rows.Scan(&issue.Number, &issue.ID, &issue.Title, &issue.Author, &issue.State,
			&createdRaw, &updatedRaw, &closedRaw, &issue.CommentCount); err != nil {
			return nil, fmt.Errorf("failed to scan issue row for %s: %w", repo, err)
		}

		if issue.CreatedAt, err = scanTimeValue(createdRaw, es.backend); err != nil {
			return nil, err
		}
		if issue.UpdatedAt, err = scanTimeValue(updatedRaw, es.backend); err != nil {
			return nil, err
		}
		if closedRaw != nil {
			closed, err := scanTimeValue(closedRaw, es.backend)
			if err != nil {
				return nil, err
			}
			issue.ClosedAt = &closed
		}

		if issue.UpdatedAt.Before(since) {
			continue
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issues for %s: %w", repo, err)
	}

	sort.Slice(issues, func(i, j int) bool {
		return issues[i].UpdatedAt.After(issues[j].UpdatedAt)
	})
	return issues, nil
}

// LastEventTime returns the creation time of the newest cached event for a
// repository, or the zero time when nothing is cached.
func (es *EventStoreImpl) LastEventTime(repo schema.RepoRef) (time.Time, error) {
	// Zero time for NoneBackend
	if es.backend == schema.NoneBackend || es.db == nil {
		return time.Time{}, nil
	}

	_, newest, err := es.eventTimeBounds(&repo)
	return newest, err
}

// eventTimeBounds scans event creation times, optionally filtered by
// repository, and returns the oldest and newest. Comparison happens in Go
// for the same reason filtering does in eventsSince.
func (es *EventStoreImpl) eventTimeBounds(repo *schema.RepoRef) (time.Time, time.Time, error) {
	quotedTableName := quoteTableName(eventsTable, es.backend)

	var rows *sql.Rows
	var err error
	if repo != nil {
		query := fmt.Sprintf(`SELECT created_at FROM %s WHERE repo = %s`, quotedTableName, es.getPlaceholder())
		rows, err = es.db.Query(query, repo.String())
	} else {
		query := fmt.Sprintf(`SELECT created_at FROM %s`, quotedTableName)
		rows, err = es.db.Query(query)
	}
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to query event times: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var oldest, newest time.Time
	for rows.Next() {
		var createdRaw any
		if err := rows.Scan(&createdRaw); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("failed to scan event time: %w", err)
		}
		created, err := scanTimeValue(createdRaw, es.backend)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if oldest.IsZero() || created.Before(oldest) {
			oldest = created
		}
		if created.After(newest) {
			newest = created
		}
	}
	if err := rows.Err(); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("error iterating event times: %w", err)
	}

	return oldest, newest, nil
}

// GetStatus returns status information about the event store.
func (es *EventStoreImpl) GetStatus() (schema.EventStoreStatus, error) {
	status := schema.EventStoreStatus{
		Backend:   string(es.backend),
		Connected: es.db != nil,
	}

	if es.backend == schema.NoneBackend || es.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(eventsTable, es.backend)

	// Get total events
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName)
	row := es.db.QueryRow(countQuery)
	if err := row.Scan(&status.TotalEvents); err != nil {
		return status, fmt.Errorf("failed to get total events: %w", err)
	}

	// Get distinct repositories
	reposQuery := fmt.Sprintf("SELECT COUNT(DISTINCT repo) FROM %s", quotedTableName)
	row = es.db.QueryRow(reposQuery)
	if err := row.Scan(&status.TotalRepos); err != nil {
		return status, fmt.Errorf("failed to get total repos: %w", err)
	}

	if status.TotalEvents > 0 {
		oldest, newest, err := es.eventTimeBounds(nil)
		if err != nil {
			return status, err
		}
		status.OldestEventTime = oldest
		status.LastEventTime = newest
	}

	// Estimate table size (approximate)
	// For SQLite, use page_count * page_size
	// For others, estimate based on row count (rough approximation)
	if es.backend == schema.SQLiteBackend {
		sizeQuery := "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
		row = es.db.QueryRow(sizeQuery)
		if err := row.Scan(&status.TableSizeBytes); err != nil {
			// If pragma fails, skip size
			status.TableSizeBytes = 0
		}
	} else {
		status.TableSizeBytes = es.sqlTableSizeBytes(int64(status.TotalEvents))
	}

	return status, nil
}

// sqlTableSizeBytes sums the on-disk size of the event cache tables for the
// MySQL and PostgreSQL backends. Returns a rough row-count estimate when the
// database-specific size queries fail.
func (es *EventStoreImpl) sqlTableSizeBytes(totalRows int64) int64 {
	fallback := totalRows * 1000
	tables := []string{eventsTable, pullRequestsTable, issuesTable}

	switch es.backend {
	case schema.MySQLBackend:
		// Use information_schema for MySQL
		cfg, err := mysql.ParseDSN(es.connStr)
		if err != nil || cfg.DBName == "" {
			return fallback
		}
		var total int64
		sizeQuery := "SELECT COALESCE(data_length + index_length, 0) FROM information_schema.tables WHERE table_schema = ? AND table_name = ?"
		for _, table := range tables {
			var size int64
			row := es.db.QueryRow(sizeQuery, cfg.DBName, table)
			if err := row.Scan(&size); err != nil {
				return fallback
			}
			total += size
		}
		return total

	case schema.PostgreSQLBackend:
		// Use pg_total_relation_size for PostgreSQL
		var total int64
		for _, table := range tables {
			var size int64
			row := es.db.QueryRow("SELECT pg_total_relation_size($1)", table)
			if err := row.Scan(&size); err != nil {
				return fallback
			}
			total += size
		}
		return total

	default:
		return fallback
	}
}

// Close closes the underlying DB connection.
func (es *EventStoreImpl) Close() error {
	if es.db != nil {
		return es.db.Close()
	}
	return nil
}
