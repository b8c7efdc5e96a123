package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"questionnaire_reminder/internal/domain/course"
)

// PostgresCourseRepository reads courses and questionnaire activities from the LMS
// tables. It also implements course.CacheInvalidator.
type PostgresCourseRepository struct {
	db            *sql.DB
	tables        Tables
	languageField string
	now           func() time.Time
}

func NewPostgresCourseRepository(db *sql.DB, tables Tables, languageField string) *PostgresCourseRepository {
	return &PostgresCourseRepository{
		db:            db,
		tables:        tables,
		languageField: languageField,
		now:           time.Now,
	}
}

// The language field is compared on its text value. Values that are not a plain
// integer count as 0.
const eligibleCoursesQuery = `SELECT c.id, c.fullname, c.shortname, c.visible, c.startdate, c.enddate,
	COALESCE(MAX(lang.language), 0) AS language
	FROM {course} c
	JOIN (
	    SELECT cd.instanceid,
	           CASE WHEN BTRIM(cd.value) ~ '^[0-9]{1,18}$' THEN CAST(BTRIM(cd.value) AS BIGINT) ELSE 0 END AS language
	    FROM {customfield_data} cd
	    JOIN {customfield_field} cf ON cf.id = cd.fieldid AND cf.shortname = $1) lang ON lang.instanceid = c.id
	WHERE c.visible = 1
	  AND c.startdate > 0 AND c.enddate > 0
	  AND lang.language > 0
	  AND EXISTS (
	      SELECT 1 FROM {course_modules} cm
	      JOIN {modules} m ON m.id = cm.module
	      WHERE cm.course = c.id AND m.name = 'questionnaire'
	        AND cm.visible = $2 AND cm.deletioninprogress = 0)
	GROUP BY c.id, c.fullname, c.shortname, c.visible, c.startdate, c.enddate
	ORDER BY c.id ASC`

func boolToSmallint(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *PostgresCourseRepository) ListEligibleCourses(ctx context.Context, questionnaireVisible bool) ([]*course.Course, error) {
	query := r.tables.expand(eligibleCoursesQuery)

	rows, err := r.db.QueryContext(ctx, query, r.languageField, boolToSmallint(questionnaireVisible))
	if err != nil {
		return nil, fmt.Errorf("error listing eligible courses: %w", err)
	}
	defer rows.Close()

	var courses []*course.Course
	for rows.Next() {
		c := &course.Course{}
		var visible int
		if err := rows.Scan(&c.ID, &c.FullName, &c.ShortName, &visible, &c.StartDate, &c.EndDate, &c.Language); err != nil {
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		c.Visible = visible == 1
		courses = append(courses, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}
	return courses, nil
}

func (r *PostgresCourseRepository) FindQuestionnaire(ctx context.Context, courseID int64, visible bool) (*course.Questionnaire, error) {
	query := r.tables.expand(`SELECT cm.id, cm.course, cm.instance, q.name, cm.visible, cm.groupmode, cm.groupingid
               FROM {course_modules} cm
               JOIN {modules} m ON m.id = cm.module
               JOIN {questionnaire} q ON q.id = cm.instance
               WHERE m.name = 'questionnaire' AND cm.course = $1
                 AND cm.visible = $2 AND cm.deletioninprogress = 0
               ORDER BY cm.id ASC
               LIMIT 1`)

	q := &course.Questionnaire{}
	var isVisible int
	err := r.db.QueryRowContext(ctx, query, courseID, boolToSmallint(visible)).
		Scan(&q.ID, &q.CourseID, &q.InstanceID, &q.Name, &isVisible, &q.GroupMode, &q.GroupingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrQuestionnaireNotFound
		}
		return nil, fmt.Errorf("error finding questionnaire of course %d: %w", courseID, err)
	}
	q.Visible = isVisible == 1
	return q, nil
}

func (r *PostgresCourseRepository) ShowQuestionnaire(ctx context.Context, moduleID int64) error {
	query := r.tables.expand(`UPDATE {course_modules} SET visible = 1, visibleold = 1 WHERE id = $1`)
	result, err := r.db.ExecContext(ctx, query, moduleID)
	if err != nil {
		return fmt.Errorf("error showing course module %d: %w", moduleID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected for course module %d: %w", moduleID, err)
	}
	if rowsAffected == 0 {
		return ErrQuestionnaireNotFound
	}
	return nil
}

// InvalidateCourseCache bumps the course cache revision so the LMS rebuilds the
// cached course structure on the next request.
func (r *PostgresCourseRepository) InvalidateCourseCache(ctx context.Context, courseID int64) error {
	query := r.tables.expand(`UPDATE {course} SET cacherev = GREATEST(cacherev + 1, $2) WHERE id = $1`)
	if _, err := r.db.ExecContext(ctx, query, courseID, r.now().Unix()); err != nil {
		return fmt.Errorf("error invalidating cache of course %d: %w", courseID, err)
	}
	return nil
}
