package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
	pgdb "github.com/ogurasousui/codex-staff-ledger/internal/platform/db/postgres"
)

const employeeColumns = `id, employee_no, full_name, birth_date, hire_date, national_id, id_no, address, phone_number,
               department, job_title, branch, manager_name, contract_type, notice_period_days, notes,
               doc_national_id_copy, doc_national_id_copy_date, doc_contract_signed, doc_contract_signed_date,
               doc_cv_received, doc_cv_received_date, doc_medical_check, doc_medical_check_date,
               status, separation_type, separation_date, separation_reason, final_working_day,
               eligible_for_rehire, notice_given, notice_days_served, exit_interview_done,
               clearance_done, clearance_amount::float8, clearance_cheque_number, created_at, updated_at`

var employeeIdentifierConstraints = map[string]employee.IdentifierField{
	"employees_employee_no_key": employee.FieldEmployeeNo,
	"employees_national_id_key": employee.FieldNationalID,
	"employees_id_no_key":       employee.FieldIDNo,
}

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	args := append(employeeIdentityArgs(e), string(e.Status), e.CreatedAt, e.UpdatedAt)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (
               employee_no, full_name, birth_date, hire_date, national_id, id_no, address, phone_number,
               department, job_title, branch, manager_name, contract_type, notice_period_days, notes,
               doc_national_id_copy, doc_national_id_copy_date, doc_contract_signed, doc_contract_signed_date,
               doc_cv_received, doc_cv_received_date, doc_medical_check, doc_medical_check_date,
               status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
        RETURNING `+employeeColumns, args...)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError("employees.insert", err)
	}
	return created, nil
}

// Update は状態以外の社員情報を更新します。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	args := append(employeeIdentityArgs(e), e.UpdatedAt, e.ID)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET employee_no = $1,
               full_name = $2,
               birth_date = $3,
               hire_date = $4,
               national_id = $5,
               id_no = $6,
               address = $7,
               phone_number = $8,
               department = $9,
               job_title = $10,
               branch = $11,
               manager_name = $12,
               contract_type = $13,
               notice_period_days = $14,
               notes = $15,
               doc_national_id_copy = $16,
               doc_national_id_copy_date = $17,
               doc_contract_signed = $18,
               doc_contract_signed_date = $19,
               doc_cv_received = $20,
               doc_cv_received_date = $21,
               doc_medical_check = $22,
               doc_medical_check_date = $23,
               updated_at = $24
         WHERE id = $25
        RETURNING `+employeeColumns, args...)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError("employees.update", err)
	}
	return updated, nil
}

// UpdateStatus は状態と退職情報を更新します。
// 現在の状態が in.From と一致しない場合は employee.ErrStatusChanged を返します。
func (r *EmployeeRepository) UpdateStatus(ctx context.Context, in employee.StatusUpdate) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	sep := in.Separation

	var sepType any
	if sep.Type != "" {
		sepType = string(sep.Type)
	}

	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET status = $1,
               separation_type = $2,
               separation_date = $3,
               separation_reason = $4,
               final_working_day = $5,
               eligible_for_rehire = $6,
               notice_given = $7,
               notice_days_served = $8,
               exit_interview_done = $9,
               clearance_done = $10,
               clearance_amount = $11,
               clearance_cheque_number = $12,
               updated_at = $13
         WHERE id = $14 AND status = $15
        RETURNING `+employeeColumns,
		string(in.To),
		sepType,
		nullableDate(sep.Date),
		sep.Reason,
		nullableDate(sep.FinalWorkingDay),
		sep.EligibleForRehire,
		sep.NoticeGiven,
		sep.NoticeDaysServed,
		sep.ExitInterviewDone,
		sep.ClearanceDone,
		sep.ClearanceAmount,
		sep.ClearanceChequeNumber,
		in.UpdatedAt,
		in.ID,
		string(in.From),
	)

	updated, err := scanEmployee(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		return nil, translateEmployeePgError("employees.update_status", err)
	}

	var exists bool
	if err := exec.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)`, in.ID).Scan(&exists); err != nil {
		return nil, translateEmployeePgError("employees.exists", err)
	}
	if !exists {
		return nil, employee.ErrEmployeeNotFound
	}
	return nil, employee.ErrStatusChanged
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	return r.findOne(ctx, "employees.select", `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE id = $1
         LIMIT 1
    `, id)
}

// FindByIDForUpdate は社員行をロックして取得します。トランザクション内で呼び出す必要があります。
func (r *EmployeeRepository) FindByIDForUpdate(ctx context.Context, id string) (*employee.Employee, error) {
	return r.findOne(ctx, "employees.lock", `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE id = $1
           FOR UPDATE
    `, id)
}

// FindByIdentifier は一意な識別子で社員を検索します。
func (r *EmployeeRepository) FindByIdentifier(ctx context.Context, field employee.IdentifierField, value string) (*employee.Employee, error) {
	var column string
	switch field {
	case employee.FieldEmployeeNo, employee.FieldNationalID, employee.FieldIDNo:
		column = string(field)
	default:
		return nil, employee.ErrInvalidID
	}

	return r.findOne(ctx, "employees.select_by_identifier", `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE `+column+` = $1
         LIMIT 1
    `, value)
}

// List は条件に一致する社員の一覧を取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, error) {
	args := make([]any, 0, 4)
	conditions := make([]string, 0, 4)

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		conditions = append(conditions, "status = ANY($"+strconv.Itoa(len(args))+")")
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		placeholder := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, "(full_name ILIKE "+placeholder+" OR employee_no ILIKE "+placeholder+" OR phone_number ILIKE "+placeholder+")")
	}

	if dept := strings.TrimSpace(filter.Department); dept != "" {
		args = append(args, dept)
		conditions = append(conditions, "lower(department) = lower($"+strconv.Itoa(len(args))+")")
	}

	if branch := strings.TrimSpace(filter.Branch); branch != "" {
		args = append(args, branch)
		conditions = append(conditions, "lower(branch) = lower($"+strconv.Itoa(len(args))+")")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "\n         WHERE " + strings.Join(conditions, " AND ")
	}

	query := `
        SELECT ` + employeeColumns + `
          FROM employees` + whereClause + `
         ORDER BY ` + employeeOrderBy(filter.Sort)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateEmployeePgError("employees.list", err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, translateEmployeePgError("employees.list", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError("employees.list", err)
	}

	return employees, nil
}

func (r *EmployeeRepository) findOne(ctx context.Context, op, query string, args ...any) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanEmployee(exec.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translateEmployeePgError(op, err)
	}
	return found, nil
}

func employeeOrderBy(sort employee.SortOrder) string {
	switch sort {
	case employee.SortNewest:
		return "created_at DESC, id DESC"
	case employee.SortName:
		return "lower(full_name) ASC, length(employee_no) ASC, employee_no ASC"
	default:
		return "length(employee_no) ASC, employee_no ASC"
	}
}

func employeeIdentityArgs(e *employee.Employee) []any {
	docs := e.Documents
	return []any{
		e.EmployeeNo,
		e.FullName,
		dateOnly(e.BirthDate),
		dateOnly(e.HireDate),
		e.NationalID,
		e.IDNo,
		e.Address,
		e.PhoneNumber,
		e.Department,
		e.JobTitle,
		e.Branch,
		e.ManagerName,
		string(e.ContractType),
		e.NoticePeriodDays,
		e.Notes,
		docs.NationalIDCopy.Received,
		nullableDate(docs.NationalIDCopy.Date),
		docs.ContractSigned.Received,
		nullableDate(docs.ContractSigned.Date),
		docs.CVReceived.Received,
		nullableDate(docs.CVReceived.Date),
		docs.MedicalCheck.Received,
		nullableDate(docs.MedicalCheck.Date),
	}
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		e                   employee.Employee
		nationalID, idNo    sql.NullString
		address, phone      sql.NullString
		dept, title         sql.NullString
		branch, mgr         sql.NullString
		contractType, notes sql.NullString
		status, sepType     sql.NullString
		sepReason, chequeNo sql.NullString
		docNationalID       bool
		docContract         bool
		docCV               bool
		docMedical          bool
		docNationalIDDate   sql.NullTime
		docContractDate     sql.NullTime
		docCVDate           sql.NullTime
		docMedDate          sql.NullTime
		sepDate, finalDay   sql.NullTime
		rehire, noticeGiven sql.NullBool
		noticeServed        sql.NullInt32
		exitInterview       bool
		clearanceDone       bool
		clearanceAmount     sql.NullFloat64
	)

	if err := row.Scan(
		&e.ID,
		&e.EmployeeNo,
		&e.FullName,
		&e.BirthDate,
		&e.HireDate,
		&nationalID,
		&idNo,
		&address,
		&phone,
		&dept,
		&title,
		&branch,
		&mgr,
		&contractType,
		&e.NoticePeriodDays,
		&notes,
		&docNationalID,
		&docNationalIDDate,
		&docContract,
		&docContractDate,
		&docCV,
		&docCVDate,
		&docMedical,
		&docMedDate,
		&status,
		&sepType,
		&sepDate,
		&sepReason,
		&finalDay,
		&rehire,
		&noticeGiven,
		&noticeServed,
		&exitInterview,
		&clearanceDone,
		&clearanceAmount,
		&chequeNo,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	e.BirthDate = dateOnly(e.BirthDate)
	e.HireDate = dateOnly(e.HireDate)
	e.NationalID = stringPtr(nationalID)
	e.IDNo = stringPtr(idNo)
	e.Address = stringPtr(address)
	e.PhoneNumber = stringPtr(phone)
	e.Department = stringPtr(dept)
	e.JobTitle = stringPtr(title)
	e.Branch = stringPtr(branch)
	e.ManagerName = stringPtr(mgr)
	e.ContractType = employee.ContractType(contractType.String)
	e.Notes = stringPtr(notes)
	e.Documents = employee.Documents{
		NationalIDCopy: employee.DocumentFlag{Received: docNationalID, Date: datePtr(docNationalIDDate)},
		ContractSigned: employee.DocumentFlag{Received: docContract, Date: datePtr(docContractDate)},
		CVReceived:     employee.DocumentFlag{Received: docCV, Date: datePtr(docCVDate)},
		MedicalCheck:   employee.DocumentFlag{Received: docMedical, Date: datePtr(docMedDate)},
	}
	e.Status = employee.Status(status.String)
	e.Separation = employee.Separation{
		Type:                  employee.Status(sepType.String),
		Date:                  datePtr(sepDate),
		Reason:                stringPtr(sepReason),
		FinalWorkingDay:       datePtr(finalDay),
		EligibleForRehire:     boolPtr(rehire),
		NoticeGiven:           boolPtr(noticeGiven),
		NoticeDaysServed:      intPtr(noticeServed),
		ExitInterviewDone:     exitInterview,
		ClearanceDone:         clearanceDone,
		ClearanceAmount:       floatPtr(clearanceAmount),
		ClearanceChequeNumber: stringPtr(chequeNo),
	}

	return &e, nil
}

func translateEmployeePgError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, employee.ErrEmployeeNotFound) {
		return employee.ErrEmployeeNotFound
	}

	if pgErr, ok := asPgError(err); ok {
		switch pgErr.Code {
		case uniqueViolationCode:
			if field, ok := employeeIdentifierConstraints[pgErr.ConstraintName]; ok {
				return employee.NewDuplicateIdentifierError(field)
			}
		case foreignKeyViolationCode:
			return employee.ErrEmployeeNotFound
		}
	}

	return persistenceError(op, err)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
