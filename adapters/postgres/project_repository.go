package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"redevdash/domain/pipeline"
	"redevdash/internal"
	"redevdash/internal/errors"
	"redevdash/models"
	"redevdash/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

const uniqueViolation = "23505"

// sort keys accepted from callers, including the short aliases the dashboard sends
var projectSortColumns = map[string]string{
	"id":                           "id",
	"project_name":                 "project_name",
	"project_codename":             "project_codename",
	"plant_owner":                  "plant_owner",
	"iso":                          "iso",
	"status":                       "status",
	"tech":                         "tech",
	"overall_project_score":        "overall_project_score",
	"thermal_operating_score":      "thermal_operating_score",
	"redevelopment_score":          "redevelopment_score",
	"legacy_nameplate_capacity_mw": "legacy_nameplate_capacity_mw",
	"heat_rate_btu_kwh":            "heat_rate_btu_kwh",
	"capacity_factor_2024":         "capacity_factor_2024",
	"created_at":                   "created_at",
	"updated_at":                   "updated_at",
	"overall_score":                "overall_project_score",
	"thermal_score":                "thermal_operating_score",
	"redev_score":                  "redevelopment_score",
	"mw":                           "legacy_nameplate_capacity_mw",
	"hr":                           "heat_rate_btu_kwh",
	"cf":                           "capacity_factor_2024",
	"mkt":                          "iso",
}

// WritableProjectColumns reports whether a column may be set through Create or Update
func WritableProjectColumns() map[string]bool {
	cols := map[string]bool{"excel_row_id": true}
	for _, def := range pipeline.Schema() {
		cols[def.DBColumn] = true
	}
	return cols
}

// ProjectRepository implements ports.ProjectRepository for PostgreSQL
type ProjectRepository struct {
	db       *sqlx.DB
	writable map[string]bool
	log      *internal.Logger
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository creates a new PostgreSQL project repository
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db, writable: WritableProjectColumns(), log: internal.DefaultLogger}
}

// whereClause accumulates numbered predicates
type whereClause struct {
	conds []string
	args  []interface{}
}

func (w *whereClause) add(format string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(format, len(w.args)))
}

func (w *whereClause) String() string {
	return strings.Join(w.conds, " AND ")
}

func isSet(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && value != pipeline.FilterAll
}

func buildProjectWhere(f models.ProjectFilter) *whereClause {
	w := &whereClause{conds: []string{"is_active = true"}}
	if isSet(f.ISO) {
		w.add("iso = $%d", strings.TrimSpace(f.ISO))
	}
	if isSet(f.ProcessType) {
		code := pipeline.ProcessCode(f.ProcessType)
		if code == "" {
			code = strings.TrimSpace(f.ProcessType)
		}
		w.add("process_type = $%d", code)
	}
	if isSet(f.PlantOwner) {
		w.add("plant_owner = $%d", strings.TrimSpace(f.PlantOwner))
	}
	if isSet(f.Status) {
		w.add("status = $%d", strings.TrimSpace(f.Status))
	}
	if isSet(f.Tech) {
		w.args = append(w.args, "%"+strings.TrimSpace(f.Tech)+"%")
		n := len(w.args)
		w.conds = append(w.conds, fmt.Sprintf("(tech ILIKE $%d OR redev_tech ILIKE $%d)", n, n))
	}
	if isSet(f.ProjectType) {
		w.add("project_type ILIKE $%d", "%"+strings.TrimSpace(f.ProjectType)+"%")
	}
	return w
}

// buildListQuery returns the filtered, sorted and paged select
func buildListQuery(f models.ProjectFilter) (string, []interface{}) {
	f = f.Normalize()
	w := buildProjectWhere(f)

	sortBy, ok := projectSortColumns[strings.ToLower(strings.TrimSpace(f.SortBy))]
	if !ok {
		sortBy = "project_name"
	}
	order := "ASC"
	if strings.EqualFold(strings.TrimSpace(f.SortOrder), "DESC") {
		order = "DESC"
	}

	args := append(w.args, f.Limit, f.Offset)
	query := fmt.Sprintf("SELECT * FROM projects WHERE %s ORDER BY %s %s NULLS LAST, id ASC LIMIT $%d OFFSET $%d",
		w.String(), sortBy, order, len(args)-1, len(args))
	return query, args
}

// List returns active projects matching the filter
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	query, args := buildListQuery(filter)
	r.log.Debug("[ProjectRepository] list query: %s args=%v", query, args)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects, err := scanProjects(rows)
	if err != nil {
		return nil, err
	}
	r.log.Debug("[ProjectRepository] retrieved %d projects", len(projects))
	return projects, nil
}

// Count returns the number of active projects matching the filter
func (r *ProjectRepository) Count(ctx context.Context, filter models.ProjectFilter) (int, error) {
	w := buildProjectWhere(filter)
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM projects WHERE "+w.String(), w.args...); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return total, nil
}

// GetByID returns an active project
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	return r.getOne(ctx, "SELECT * FROM projects WHERE id = $1 AND is_active = true LIMIT 1", id)
}

// GetByName matches the project name or the codename
func (r *ProjectRepository) GetByName(ctx context.Context, name string) (*models.Project, error) {
	return r.getOne(ctx, "SELECT * FROM projects WHERE (project_name = $1 OR project_codename = $1) AND is_active = true ORDER BY id LIMIT 1", name)
}

// GetByExcelRowID finds the project imported from a spreadsheet row, active or not
func (r *ProjectRepository) GetByExcelRowID(ctx context.Context, rowID string) (*models.Project, error) {
	return r.getOne(ctx, "SELECT * FROM projects WHERE excel_row_id = $1 LIMIT 1", rowID)
}

func (r *ProjectRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Project, error) {
	rows, err := r.db.QueryxContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	defer rows.Close()

	projects, err := scanProjects(rows)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, errors.NotFound("project")
	}
	return &projects[0], nil
}

// Create inserts a project and its audit row in one transaction
func (r *ProjectRepository) Create(ctx context.Context, values models.ProjectValues, meta models.RequestMeta) (*models.Project, error) {
	columns, args, err := r.columnsAndArgs(values)
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	actor := actorOf(meta)
	args = append(args, actor, actor)
	columns = append(columns, "created_by", "updated_by")
	placeholders = append(placeholders, "$"+strconv.Itoa(len(args)-1), "$"+strconv.Itoa(len(args)))

	query := fmt.Sprintf("INSERT INTO projects (%s, created_at, updated_at, is_active) VALUES (%s, NOW(), NOW(), true) RETURNING *",
		strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	var created *models.Project
	err = r.inTx(ctx, func(tx *sqlx.Tx) error {
		project, err := queryProject(ctx, tx, query, args...)
		if err != nil {
			return err
		}
		created = project
		return insertAudit(ctx, tx, meta.UserID, models.AuditProjectCreated, models.JSONBMap{
			"project_id":   project.ID,
			"project_name": project.Name(),
		}, meta)
	})
	if err != nil {
		return nil, mapWriteError(err, "create project")
	}
	r.log.Info("[ProjectRepository] created project %d (%s)", created.ID, created.Name())
	return created, nil
}

// Update changes the given columns of an active project
func (r *ProjectRepository) Update(ctx context.Context, id int64, values models.ProjectValues, meta models.RequestMeta) (*models.Project, error) {
	columns, args, err := r.columnsAndArgs(values)
	if err != nil {
		return nil, err
	}

	sets := make([]string, 0, len(columns)+2)
	for i, column := range columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, i+1))
	}
	args = append(args, actorOf(meta), id)
	sets = append(sets, "updated_at = NOW()", fmt.Sprintf("updated_by = $%d", len(args)-1))
	query := fmt.Sprintf("UPDATE projects SET %s WHERE id = $%d AND is_active = true RETURNING *", strings.Join(sets, ", "), len(args))

	var updated *models.Project
	err = r.inTx(ctx, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1 AND is_active = true)", id); err != nil {
			return err
		}
		if !exists {
			return errors.NotFound("project")
		}
		project, err := queryProject(ctx, tx, query, args...)
		if err != nil {
			return err
		}
		updated = project
		return insertAudit(ctx, tx, meta.UserID, models.AuditProjectUpdated, models.JSONBMap{
			"project_id": id,
			"columns":    columns,
		}, meta)
	})
	if err != nil {
		return nil, mapWriteError(err, "update project")
	}
	r.log.Info("[ProjectRepository] updated project %d (%d columns)", id, len(columns))
	return updated, nil
}

// SoftDelete marks a project inactive
func (r *ProjectRepository) SoftDelete(ctx context.Context, id int64, meta models.RequestMeta) (*models.Project, error) {
	var deleted *models.Project
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		project, err := queryProject(ctx, tx,
			"UPDATE projects SET is_active = false, updated_at = NOW(), updated_by = $2 WHERE id = $1 AND is_active = true RETURNING *",
			id, actorOf(meta))
		if err != nil {
			return err
		}
		deleted = project
		return insertAudit(ctx, tx, meta.UserID, models.AuditProjectDeleted, models.JSONBMap{
			"project_id":   id,
			"project_name": project.Name(),
		}, meta)
	})
	if err != nil {
		return nil, mapWriteError(err, "delete project")
	}
	r.log.Info("[ProjectRepository] soft deleted project %d", id)
	return deleted, nil
}

// DashboardStats runs the summary queries concurrently
func (r *ProjectRepository) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.db.GetContext(ctx, &stats.TotalProjects, "SELECT COUNT(*) FROM projects WHERE is_active = true")
	})
	g.Go(func() error {
		return r.db.SelectContext(ctx, &stats.ISODistribution, groupedCount("iso", 0))
	})
	g.Go(func() error {
		return r.db.SelectContext(ctx, &stats.TechDistribution, groupedCount("tech", 10))
	})
	g.Go(func() error {
		return r.db.SelectContext(ctx, &stats.StatusDistribution, groupedCount("status", 0))
	})
	g.Go(func() error {
		return r.db.SelectContext(ctx, &stats.OwnerDistribution, groupedCount("plant_owner", 10))
	})
	g.Go(func() error {
		return r.db.GetContext(ctx, &stats.Scores, `
			SELECT
				ROUND(AVG(overall_project_score)::numeric, 2)::float8 AS avg_overall,
				ROUND(AVG(thermal_operating_score)::numeric, 2)::float8 AS avg_thermal,
				ROUND(AVG(redevelopment_score)::numeric, 2)::float8 AS avg_redev,
				ROUND(SUM(legacy_nameplate_capacity_mw)::numeric, 2)::float8 AS total_mw,
				COUNT(*) AS total_projects
			FROM projects WHERE is_active = true`)
	})
	g.Go(func() error {
		return r.db.SelectContext(ctx, &stats.RedevDistribution, `
			SELECT redev_tech, COUNT(*) AS count, ROUND(SUM(redev_capacity_mw)::numeric, 2)::float8 AS total_capacity
			FROM projects
			WHERE is_active = true AND redev_tech IS NOT NULL AND redev_tech <> ''
			GROUP BY redev_tech
			ORDER BY count DESC, redev_tech
			LIMIT 10`)
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch dashboard statistics: %w", err)
	}
	return stats, nil
}

func groupedCount(column string, limit int) string {
	query := fmt.Sprintf(`SELECT %[1]s AS name, COUNT(*) AS count FROM projects
		WHERE is_active = true AND %[1]s IS NOT NULL AND %[1]s <> ''
		GROUP BY %[1]s ORDER BY count DESC, %[1]s`, column)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return query
}

// FilterOptions lists distinct dropdown values over active projects
func (r *ProjectRepository) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	opts := &models.FilterOptions{}
	targets := []struct {
		column string
		dest   *[]string
	}{
		{"iso", &opts.ISOs},
		{"plant_owner", &opts.Owners},
		{"tech", &opts.Techs},
		{"status", &opts.Statuses},
		{"project_type", &opts.ProjectTypes},
		{"process_type", &opts.ProcessTypes},
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, target := range targets {
		target := target
		g.Go(func() error {
			values := []string{}
			query := fmt.Sprintf(`SELECT DISTINCT %[1]s FROM projects
				WHERE is_active = true AND %[1]s IS NOT NULL AND %[1]s <> '' ORDER BY %[1]s`, target.column)
			if err := r.db.SelectContext(ctx, &values, query); err != nil {
				return err
			}
			*target.dest = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch filter options: %w", err)
	}
	return opts, nil
}

// Ping reports whether the database answers
func (r *ProjectRepository) Ping(ctx context.Context) models.ConnectionStatus {
	var result struct {
		Now     time.Time `db:"now"`
		Version string    `db:"version"`
	}
	if err := r.db.GetContext(ctx, &result, "SELECT NOW() AS now, version() AS version"); err != nil {
		return models.ConnectionStatus{Connected: false, Error: err.Error()}
	}
	return models.ConnectionStatus{Connected: true, Timestamp: result.Now, Version: result.Version}
}

// columnsAndArgs validates column names against the whitelist and orders them
// deterministically; blank strings become NULL
func (r *ProjectRepository) columnsAndArgs(values models.ProjectValues) ([]string, []interface{}, error) {
	if len(values) == 0 {
		return nil, nil, errors.ValidationError("no project fields supplied")
	}
	columns := make([]string, 0, len(values))
	for column := range values {
		if !r.writable[column] {
			return nil, nil, errors.InvalidInput(fmt.Sprintf("unknown project field %q", column))
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	args := make([]interface{}, len(columns))
	for i, column := range columns {
		v := values[column]
		if v == nil || strings.TrimSpace(*v) == "" {
			args[i] = nil
			continue
		}
		args[i] = strings.TrimSpace(*v)
	}
	return columns, args, nil
}

func (r *ProjectRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.log.Warn("[ProjectRepository] rollback failed: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func queryProject(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) (*models.Project, error) {
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects, err := scanProjects(rows)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, errors.NotFound("project")
	}
	return &projects[0], nil
}

func scanProjects(rows *sqlx.Rows) ([]models.Project, error) {
	projects := []models.Project{}
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, projectFromMap(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read projects: %w", err)
	}
	return projects, nil
}

// projectFromMap converts a scanned row; unknown columns land in Values
func projectFromMap(row map[string]interface{}) models.Project {
	p := models.Project{Values: make(models.ProjectValues, len(row))}
	for column, raw := range row {
		switch column {
		case "id":
			if text, ok := dbText(raw); ok {
				p.ID, _ = strconv.ParseInt(text, 10, 64)
			}
		case "excel_row_id":
			p.ExcelRowID, _ = dbText(raw)
		case "is_active":
			p.IsActive, _ = raw.(bool)
		case "created_at":
			p.CreatedAt, _ = raw.(time.Time)
		case "updated_at":
			p.UpdatedAt, _ = raw.(time.Time)
		case "created_by":
			p.CreatedBy, _ = dbText(raw)
		case "updated_by":
			p.UpdatedBy, _ = dbText(raw)
		default:
			if text, ok := dbText(raw); ok {
				p.Values[column] = &text
			} else {
				p.Values[column] = nil
			}
		}
	}
	return p
}

// dbText renders a driver value as text; false for NULL
func dbText(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case []byte:
		return string(v), true
	case string:
		return v, true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case time.Time:
		return v.Format(time.RFC3339), true
	default:
		return fmt.Sprint(v), true
	}
}

func actorOf(meta models.RequestMeta) string {
	if meta.Actor != "" {
		return meta.Actor
	}
	return "api"
}

// mapWriteError keeps AppErrors and turns unique violations into conflicts
func mapWriteError(err error, op string) error {
	if errors.IsAppError(err) {
		return err
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return errors.Wrap(errors.Conflict("a project with the same spreadsheet row already exists"), op)
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound("project")
	}
	return errors.Wrap(errors.DatabaseError(err.Error()), fmt.Sprintf("failed to %s", op))
}

func insertAudit(ctx context.Context, exec sqlx.ExecerContext, userID *uuid.UUID, action string, details models.JSONBMap, meta models.RequestMeta) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO audit_logs (id, user_id, action, details, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, uuid.New(), userID, action, details, meta.IPAddress, userAgent(meta))
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func userAgent(meta models.RequestMeta) string {
	if meta.UserAgent == "" {
		return "unknown"
	}
	return meta.UserAgent
}
