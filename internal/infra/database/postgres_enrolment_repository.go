package database

import (
	"context"
	"database/sql"
	"fmt"

	"questionnaire_reminder/internal/domain/course"
	"questionnaire_reminder/internal/domain/enrolment"
)

const (
	contextLevelSystem = 10
	contextLevelCourse = 50
	capabilityAllow    = 1
	capabilityProhibit = -1000
)

const enrolledUsersQuery = `SELECT DISTINCT u.id, u.firstname, u.lastname, u.email
	FROM {user} u
	JOIN {user_enrolments} ue ON ue.userid = u.id
	JOIN {enrol} e ON e.id = ue.enrolid
	JOIN {context} ctx ON ctx.instanceid = e.courseid AND ctx.contextlevel = $4
	JOIN {context} sysctx ON sysctx.contextlevel = $5
	JOIN {role_assignments} ra ON ra.userid = u.id AND ra.contextid = ctx.id
	JOIN {role_capabilities} rc ON rc.roleid = ra.roleid AND rc.contextid = sysctx.id
	 AND rc.capability = $2 AND rc.permission = $6
	WHERE e.courseid = $1
	  AND u.deleted = 0
	  AND NOT EXISTS (
	      SELECT 1 FROM {role_assignments} pra
	      JOIN {role_capabilities} prc ON prc.roleid = pra.roleid
	       AND prc.capability = $2 AND prc.permission = $7
	      WHERE pra.userid = u.id AND pra.contextid = ctx.id
	        AND prc.contextid IN (ctx.id, sysctx.id))
	  AND ($3::bigint = 0 OR EXISTS (
	      SELECT 1 FROM {groups_members} gm WHERE gm.groupid = $3 AND gm.userid = u.id))
	ORDER BY u.id ASC`

// PostgresEnrolmentRepository reads enrolments, role capabilities and questionnaire
// responses. It also implements enrolment.GroupResolver.
type PostgresEnrolmentRepository struct {
	db     *sql.DB
	tables Tables
}

func NewPostgresEnrolmentRepository(db *sql.DB, tables Tables) *PostgresEnrolmentRepository {
	return &PostgresEnrolmentRepository{db: db, tables: tables}
}

// ListEnrolledUsers returns every non-deleted user enrolled in the course, suspended
// enrolments included, who holds a course role allowing capability in its system
// definition and no role prohibiting it in the system or course context. A non-zero
// groupID keeps only members of that group.
func (r *PostgresEnrolmentRepository) ListEnrolledUsers(ctx context.Context, courseID int64, capability string, groupID int64) ([]*enrolment.User, error) {
	query := r.tables.expand(enrolledUsersQuery)

	rows, err := r.db.QueryContext(ctx, query, courseID, capability, groupID,
		contextLevelCourse, contextLevelSystem, capabilityAllow, capabilityProhibit)
	if err != nil {
		return nil, fmt.Errorf("error listing enrolled users of course %d: %w", courseID, err)
	}
	defer rows.Close()

	var users []*enrolment.User
	for rows.Next() {
		u := &enrolment.User{}
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email); err != nil {
			return nil, fmt.Errorf("error scanning enrolled user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrolled user rows: %w", err)
	}
	return users, nil
}

func (r *PostgresEnrolmentRepository) ListCompletedUserIDs(ctx context.Context, questionnaireID int64) ([]int64, error) {
	query := r.tables.expand(`SELECT DISTINCT userid FROM {questionnaire_response}
               WHERE questionnaireid = $1 AND complete = 'y'
               ORDER BY userid ASC`)

	rows, err := r.db.QueryContext(ctx, query, questionnaireID)
	if err != nil {
		return nil, fmt.Errorf("error listing completed responses of questionnaire %d: %w", questionnaireID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning response row: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating response rows: %w", err)
	}
	return ids, nil
}

// ActivityGroup resolves the group a scheduled job evaluates the activity in. The
// job runs without a session, with access to all groups and membership in none, so
// the active group is 0 (all participants) whatever the group mode or grouping.
func (r *PostgresEnrolmentRepository) ActivityGroup(_ context.Context, _ *course.Questionnaire) (int64, error) {
	return 0, nil
}
