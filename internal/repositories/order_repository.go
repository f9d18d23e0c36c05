package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodslink_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
	"github.com/shopspring/decimal"
)

// OrderUpdate lists the order columns a guarded update may set. Nil fields are
// left untouched. Revision and updated_at are always advanced by the guard.
type OrderUpdate struct {
	Status        *string
	PaymentMethod *string
	Subtotal      *decimal.Decimal
	Total         *decimal.Decimal
}

// OrderRepository defines the interface for order persistence. All mutating
// methods accept an SQLExecutor so they compose into a single transaction.
type OrderRepository interface {
	// WithinTx runs fn inside a database transaction. The transaction is
	// rolled back when fn returns an error and committed otherwise.
	WithinTx(fn func(ex SQLExecutor) error) error

	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	GetOrderByID(orderID int64) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)

	// UpdateOrderGuard applies upd to the order only when the stored revision
	// equals expectedRevision, bumping revision and updated_at in the same
	// statement. Returns the number of rows affected; zero means the caller
	// lost the race (or the order is gone) and must re-read.
	UpdateOrderGuard(executor SQLExecutor, orderID, expectedRevision int64, upd OrderUpdate) (int64, error)

	DeleteOrder(executor SQLExecutor, orderID int64) (int64, error)

	CreateOrderLine(executor SQLExecutor, line *models.OrderLine) (int64, error)
	GetOrderLines(orderID int64) ([]models.OrderLine, error)
	UpdateLineQuantity(executor SQLExecutor, lineID int64, quantity int, lineTotal decimal.Decimal) error
	DeleteOrderLines(executor SQLExecutor, orderID int64) (int64, error)

	CreateCharge(executor SQLExecutor, charge *models.AdditionalCharge) (int64, error)
	GetOrderCharges(orderID int64) ([]models.AdditionalCharge, error)
	UpdateChargeResolved(executor SQLExecutor, chargeID int64, resolved decimal.Decimal) error
	DeleteCharge(executor SQLExecutor, chargeID int64) (int64, error)
	DeleteOrderCharges(executor SQLExecutor, orderID int64) (int64, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithinTx(fn func(ex SQLExecutor) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", ErrDatabaseError, err)
	}
	return nil
}

// --- Order Methods ---

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders
	            (tenant_id, table_code, customer_name, status, payment_method,
	             subtotal, total, revision, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`

	if order.Revision == 0 {
		order.Revision = 1
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}

	err := executor.QueryRow(query,
		order.TenantID, order.TableCode, order.CustomerName, order.Status, order.PaymentMethod,
		order.Subtotal, order.Total, order.Revision, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return order.ID, nil
}

func (r *orderRepository) GetOrderByID(orderID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT id, tenant_id, table_code, customer_name, status, payment_method,
	                 subtotal, total, revision, created_at, updated_at
	          FROM orders
	          WHERE id = $1`
	err := r.db.QueryRow(query, orderID).Scan(
		&order.ID, &order.TenantID, &order.TableCode, &order.CustomerName, &order.Status, &order.PaymentMethod,
		&order.Subtotal, &order.Total, &order.Revision, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

func (r *orderRepository) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
        SELECT
            o.id, o.tenant_id, o.table_code, o.customer_name, o.status, o.payment_method,
            o.subtotal, o.total, o.revision, o.created_at, o.updated_at,
            COUNT(*) OVER() as total_count
        FROM orders o
    `)

	conditions := []string{"o.tenant_id = $1"}
	args := []interface{}{filters.TenantID}
	argCounter := 2

	if filters.TableCode != nil && *filters.TableCode != "" {
		conditions = append(conditions, fmt.Sprintf("o.table_code = $%d", argCounter))
		args = append(args, *filters.TableCode)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}

	queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY o.created_at DESC, o.id DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		err := rows.Scan(
			&o.ID, &o.TenantID, &o.TableCode, &o.CustomerName, &o.Status, &o.PaymentMethod,
			&o.Subtotal, &o.Total, &o.Revision, &o.CreatedAt, &o.UpdatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *orderRepository) UpdateOrderGuard(executor SQLExecutor, orderID, expectedRevision int64, upd OrderUpdate) (int64, error) {
	sets := []string{"revision = revision + 1", "updated_at = $1"}
	args := []interface{}{time.Now()}
	argCounter := 2

	if upd.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argCounter))
		args = append(args, *upd.Status)
		argCounter++
	}
	if upd.PaymentMethod != nil {
		sets = append(sets, fmt.Sprintf("payment_method = $%d", argCounter))
		args = append(args, *upd.PaymentMethod)
		argCounter++
	}
	if upd.Subtotal != nil {
		sets = append(sets, fmt.Sprintf("subtotal = $%d", argCounter))
		args = append(args, *upd.Subtotal)
		argCounter++
	}
	if upd.Total != nil {
		sets = append(sets, fmt.Sprintf("total = $%d", argCounter))
		args = append(args, *upd.Total)
		argCounter++
	}

	query := fmt.Sprintf("UPDATE orders SET %s WHERE id = $%d AND revision = $%d",
		strings.Join(sets, ", "), argCounter, argCounter+1)
	args = append(args, orderID, expectedRevision)

	result, err := executor.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: guarded update of order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return rowsAffected, nil
}

func (r *orderRepository) DeleteOrder(executor SQLExecutor, orderID int64) (int64, error) {
	query := `DELETE FROM orders WHERE id = $1`
	result, err := executor.Exec(query, orderID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for deleting order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return 0, ErrNotFound
	}
	return rowsAffected, nil
}

// --- OrderLine Methods ---

func (r *orderRepository) CreateOrderLine(executor SQLExecutor, line *models.OrderLine) (int64, error) {
	query := `INSERT INTO order_lines
	            (order_id, item_id, item_name, unit_price, quantity, line_total, note)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	err := executor.QueryRow(query,
		line.OrderID, line.ItemID, line.ItemName, line.UnitPrice, line.Quantity, line.LineTotal, line.Note,
	).Scan(&line.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return 0, fmt.Errorf("%w: creating order line (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
		}
		return 0, fmt.Errorf("%w: creating order line: %v", ErrDatabaseError, err)
	}
	return line.ID, nil
}

func (r *orderRepository) GetOrderLines(orderID int64) ([]models.OrderLine, error) {
	lines := []models.OrderLine{}
	query := `SELECT id, order_id, item_id, item_name, unit_price, quantity, line_total, note
	          FROM order_lines
	          WHERE order_id = $1
	          ORDER BY id`

	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying lines for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var line models.OrderLine
		err := rows.Scan(
			&line.ID, &line.OrderID, &line.ItemID, &line.ItemName,
			&line.UnitPrice, &line.Quantity, &line.LineTotal, &line.Note,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning line for order ID %d: %v", ErrDatabaseError, orderID, err)
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating line rows for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return lines, nil
}

func (r *orderRepository) UpdateLineQuantity(executor SQLExecutor, lineID int64, quantity int, lineTotal decimal.Decimal) error {
	query := `UPDATE order_lines SET quantity = $1, line_total = $2 WHERE id = $3`
	result, err := executor.Exec(query, quantity, lineTotal, lineID)
	if err != nil {
		return fmt.Errorf("%w: updating quantity for line ID %d: %v", ErrDatabaseError, lineID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for line ID %d: %v", ErrDatabaseError, lineID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) DeleteOrderLines(executor SQLExecutor, orderID int64) (int64, error) {
	query := `DELETE FROM order_lines WHERE order_id = $1`
	result, err := executor.Exec(query, orderID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting lines for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for deleting lines of order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return rowsAffected, nil
}

// --- AdditionalCharge Methods ---

func (r *orderRepository) CreateCharge(executor SQLExecutor, charge *models.AdditionalCharge) (int64, error) {
	query := `INSERT INTO order_charges (order_id, label, kind, amount, resolved)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	err := executor.QueryRow(query,
		charge.OrderID, charge.Label, charge.Kind, charge.Amount, charge.Resolved,
	).Scan(&charge.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating charge: %v", ErrDatabaseError, err)
	}
	return charge.ID, nil
}

func (r *orderRepository) GetOrderCharges(orderID int64) ([]models.AdditionalCharge, error) {
	charges := []models.AdditionalCharge{}
	query := `SELECT id, order_id, label, kind, amount, resolved
	          FROM order_charges
	          WHERE order_id = $1
	          ORDER BY id`

	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying charges for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var charge models.AdditionalCharge
		err := rows.Scan(
			&charge.ID, &charge.OrderID, &charge.Label, &charge.Kind, &charge.Amount, &charge.Resolved,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning charge for order ID %d: %v", ErrDatabaseError, orderID, err)
		}
		charges = append(charges, charge)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating charge rows for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return charges, nil
}

func (r *orderRepository) UpdateChargeResolved(executor SQLExecutor, chargeID int64, resolved decimal.Decimal) error {
	query := `UPDATE order_charges SET resolved = $1 WHERE id = $2`
	result, err := executor.Exec(query, resolved, chargeID)
	if err != nil {
		return fmt.Errorf("%w: updating resolved amount for charge ID %d: %v", ErrDatabaseError, chargeID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for charge ID %d: %v", ErrDatabaseError, chargeID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) DeleteCharge(executor SQLExecutor, chargeID int64) (int64, error) {
	query := `DELETE FROM order_charges WHERE id = $1`
	result, err := executor.Exec(query, chargeID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting charge ID %d: %v", ErrDatabaseError, chargeID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for deleting charge ID %d: %v", ErrDatabaseError, chargeID, err)
	}
	if rowsAffected == 0 {
		return 0, ErrNotFound
	}
	return rowsAffected, nil
}

func (r *orderRepository) DeleteOrderCharges(executor SQLExecutor, orderID int64) (int64, error) {
	query := `DELETE FROM order_charges WHERE order_id = $1`
	result, err := executor.Exec(query, orderID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting charges for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for deleting charges of order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return rowsAffected, nil
}
