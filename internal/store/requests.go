package store

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"support_back_end/internal/models"
	"support_back_end/internal/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrOpenConflict : une demande est déjà ouverte pour ce numéro de commande
// (violation de l'index unique partiel, jamais un check applicatif)
var ErrOpenConflict = errors.New("une demande est déjà ouverte pour cette commande")

type RequestStore struct{ db *pgxpool.Pool }

func NewRequestStore(db *pgxpool.Pool) *RequestStore { return &RequestStore{db: db} }

const requestColumns = `id, type, status, customer_email, customer_phone, customer_name,
	order_number, reason, shopify_order_id, admin_notes, processed_at, processed_by,
	created_at, updated_at`

func scanRequest(row pgx.Row) (*models.HelpRequest, error) {
	var r models.HelpRequest
	err := row.Scan(
		&r.ID, &r.Type, &r.Status, &r.CustomerEmail, &r.CustomerPhone, &r.CustomerName,
		&r.OrderNumber, &r.Reason, &r.ShopifyOrderID, &r.AdminNotes, &r.ProcessedAt, &r.ProcessedBy,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// HasOpenRequest vérifie les deux formes du numéro (avec et sans "#") contre
// les statuts non terminaux
func (s *RequestStore) HasOpenRequest(ctx context.Context, orderNumber string) (bool, error) {
	n := utils.NormalizeOrderNumber(orderNumber)

	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM help_requests
			WHERE order_number IN ($1, $2) AND status = ANY($3)
		)
	`, n, "#"+n, models.OpenStatuses).Scan(&exists)
	return exists, err
}

type CreateRequestInput struct {
	Type          string
	CustomerEmail string
	CustomerPhone *string
	CustomerName  string
	OrderNumber   string
	Reason        *string
}

// Create insère une nouvelle demande (statut pending). La contrainte unique
// partielle en base arbitre les soumissions concurrentes : la seconde reçoit
// ErrOpenConflict.
func (s *RequestStore) Create(ctx context.Context, in CreateRequestInput) (*models.HelpRequest, error) {
	id := uuid.NewString()

	row := s.db.QueryRow(ctx, `
		INSERT INTO help_requests (id, type, status, customer_email, customer_phone, customer_name, order_number, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+requestColumns,
		id,
		strings.TrimSpace(in.Type),
		models.StatusPending,
		strings.TrimSpace(in.CustomerEmail),
		trimPtr(in.CustomerPhone),
		strings.TrimSpace(in.CustomerName),
		utils.NormalizeOrderNumber(in.OrderNumber),
		trimPtr(in.Reason),
	)

	r, err := scanRequest(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrOpenConflict
		}
		return nil, err
	}
	return r, nil
}

type ListFilters struct {
	Type   string
	Status string
	Search string
	Limit  int
	Offset int
}

// List retourne les demandes filtrées, les plus récentes d'abord.
// La recherche est un ILIKE (OR) sur numéro de commande, email et nom.
func (s *RequestStore) List(ctx context.Context, f ListFilters) ([]models.HelpRequest, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	conds := []string{"1=1"}
	args := []any{}

	if t := strings.TrimSpace(f.Type); t != "" {
		args = append(args, t)
		conds = append(conds, "type = $"+itoa(len(args)))
	}
	if st := strings.TrimSpace(f.Status); st != "" {
		args = append(args, st)
		conds = append(conds, "status = $"+itoa(len(args)))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		p := "%" + q + "%"
		args = append(args, p, p, p)
		conds = append(conds, "(order_number ILIKE $"+itoa(len(args)-2)+
			" OR customer_email ILIKE $"+itoa(len(args)-1)+
			" OR customer_name ILIKE $"+itoa(len(args))+")")
	}

	args = append(args, f.Limit, f.Offset)

	sql := `SELECT ` + requestColumns + `
		FROM help_requests
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY created_at DESC
		LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HelpRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetByID retourne nil (sans erreur) si la demande n'existe pas
func (s *RequestStore) GetByID(ctx context.Context, id string) (*models.HelpRequest, error) {
	r, err := scanRequest(s.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM help_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

// LatestByOrderAndEmail : dernière demande d'un client pour une commande
// (endpoint public de suivi de statut)
func (s *RequestStore) LatestByOrderAndEmail(ctx context.Context, orderNumber, email string) (*models.HelpRequest, error) {
	n := utils.NormalizeOrderNumber(orderNumber)

	r, err := scanRequest(s.db.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM help_requests
		WHERE order_number IN ($1, $2) AND LOWER(customer_email) = LOWER($3)
		ORDER BY created_at DESC
		LIMIT 1
	`, n, "#"+n, strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

type UpdateRequestFields struct {
	Status         *string
	AdminNotes     *string
	ShopifyOrderID *int64
}

// Update : mise à jour partielle — seuls les champs présents sont modifiés.
// Passage à completed/rejected : processed_at est horodaté et processed_by
// renseigné si fourni. Sans aucun champ, l'appel dégénère en simple lecture.
// Retourne nil si l'id n'existe pas.
func (s *RequestStore) Update(ctx context.Context, id string, fields UpdateRequestFields, actingAdmin *string) (*models.HelpRequest, error) {
	sets := []string{}
	args := []any{}

	if fields.Status != nil {
		args = append(args, *fields.Status)
		sets = append(sets, "status = $"+itoa(len(args)))

		if *fields.Status == models.StatusCompleted || *fields.Status == models.StatusRejected {
			sets = append(sets, "processed_at = NOW()")
			if actingAdmin != nil {
				args = append(args, *actingAdmin)
				sets = append(sets, "processed_by = $"+itoa(len(args)))
			}
		}
	}
	if fields.AdminNotes != nil {
		args = append(args, *fields.AdminNotes)
		sets = append(sets, "admin_notes = $"+itoa(len(args)))
	}
	if fields.ShopifyOrderID != nil {
		args = append(args, *fields.ShopifyOrderID)
		sets = append(sets, "shopify_order_id = $"+itoa(len(args)))
	}

	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	sql := `UPDATE help_requests SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + itoa(len(args)) + ` RETURNING ` + requestColumns

	r, err := scanRequest(s.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func itoa(i int) string { return strconv.Itoa(i) }
