package http

import (
	"encoding/json"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/recurring"
	"fintrack/internal/services"
)

// Amounts are rendered as exact JSON numbers with two decimals.
func amount(m core.Money) json.Number {
	return json.Number(m.String())
}

func isoDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

type billDTO struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Amount          json.Number `json:"amount"`
	Category        string      `json:"category"`
	CategoryColor   string      `json:"categoryColor,omitempty"`
	Frequency       string      `json:"frequency"`
	NextDueDate     string      `json:"nextDueDate"`
	LastPaidDate    string      `json:"lastPaidDate"`
	Merchant        string      `json:"merchant,omitempty"`
	Status          string      `json:"status"`
	OccurrenceCount int         `json:"occurrenceCount"`
	AverageAmount   json.Number `json:"averageAmount"`
}

func toBillDTOs(bills []recurring.Bill) []billDTO {
	out := make([]billDTO, 0, len(bills))
	for _, b := range bills {
		out = append(out, billDTO{
			ID:              b.ID,
			Name:            b.Name,
			Amount:          amount(b.Amount),
			Category:        b.Category,
			CategoryColor:   b.CategoryColor,
			Frequency:       b.Frequency.String(),
			NextDueDate:     isoDate(b.NextDueDate),
			LastPaidDate:    isoDate(b.LastPaidDate),
			Merchant:        b.Merchant,
			Status:          b.Status.String(),
			OccurrenceCount: b.OccurrenceCount,
			AverageAmount:   json.Number(b.AverageAmount.String()),
		})
	}
	return out
}

type categoryDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	Color            string `json:"color,omitempty"`
	Icon             string `json:"icon,omitempty"`
	TransactionCount *int64 `json:"transactionCount,omitempty"`
}

func toCategoryDTO(c core.Category) categoryDTO {
	return categoryDTO{ID: c.ID, Name: c.Name, Description: c.Description, Color: c.Color, Icon: c.Icon}
}

type transactionDTO struct {
	ID          string      `json:"id"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Type        string      `json:"type"`
	Status      string      `json:"status"`
	Category    categoryDTO `json:"category"`
	Merchant    string      `json:"merchant,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	Source      string      `json:"source,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		Amount:      amount(t.Amount),
		Description: t.Description,
		Date:        isoDate(t.Date),
		Type:        string(t.Type),
		Status:      string(t.Status),
		Category:    toCategoryDTO(t.Category),
		Merchant:    t.Merchant,
		Notes:       t.Notes,
		Source:      t.Source,
		CreatedAt:   t.CreatedAt,
	}
}

func toTransactionDTOs(txs []core.Transaction) []transactionDTO {
	out := make([]transactionDTO, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionDTO(t))
	}
	return out
}

type createTransactionRequest struct {
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Type        string      `json:"type"`
	Status      string      `json:"status"`
	CategoryID  string      `json:"categoryId"`
	Merchant    string      `json:"merchant"`
	Notes       string      `json:"notes"`
	Source      string      `json:"source"`
}

func (req createTransactionRequest) toDomain(userID string) (core.Transaction, error) {
	m, err := ParseMoney(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		UserID:      userID,
		Amount:      m,
		Description: sanitizeInput(req.Description),
		Date:        date,
		Type:        core.TransactionType(req.Type),
		Status:      core.TransactionStatus(req.Status),
		Category:    core.Category{ID: sanitizeInput(req.CategoryID)},
		Merchant:    sanitizeInput(req.Merchant),
		Notes:       sanitizeInput(req.Notes),
		Source:      sanitizeInput(req.Source),
	}, nil
}

// updateTransactionRequest is a partial update: absent fields are kept.
type updateTransactionRequest struct {
	Amount      *json.Number `json:"amount"`
	Description *string      `json:"description"`
	Date        *string      `json:"date"`
	Status      *string      `json:"status"`
	CategoryID  *string      `json:"categoryId"`
	Merchant    *string      `json:"merchant"`
	Notes       *string      `json:"notes"`
	Source      *string      `json:"source"`
}

func sanitized(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}

func (req updateTransactionRequest) toPatch() (services.TransactionPatch, error) {
	p := services.TransactionPatch{
		Description: sanitized(req.Description),
		CategoryID:  sanitized(req.CategoryID),
		Merchant:    sanitized(req.Merchant),
		Notes:       sanitized(req.Notes),
		Source:      sanitized(req.Source),
	}
	if req.Amount != nil {
		m, err := ParseMoney(*req.Amount)
		if err != nil {
			return services.TransactionPatch{}, err
		}
		p.Amount = &m
	}
	if req.Date != nil {
		d, err := ParseDate(*req.Date)
		if err != nil {
			return services.TransactionPatch{}, err
		}
		p.Date = &d
	}
	if req.Status != nil {
		st := core.TransactionStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		p.Status = &st
	}
	return p, nil
}

type createIncomeRequest struct {
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Source      string      `json:"source"`
	Date        string      `json:"date"`
	CategoryID  string      `json:"categoryId"`
	Notes       string      `json:"notes"`
}

// toDomain leaves the date zero when omitted so the service can default it.
func (req createIncomeRequest) toDomain(userID string) (core.Transaction, error) {
	m, err := ParseMoney(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	var date time.Time
	if strings.TrimSpace(req.Date) != "" {
		if date, err = ParseDate(req.Date); err != nil {
			return core.Transaction{}, err
		}
	}
	return core.Transaction{
		UserID:      userID,
		Amount:      m,
		Description: sanitizeInput(req.Description),
		Source:      sanitizeInput(req.Source),
		Date:        date,
		Category:    core.Category{ID: sanitizeInput(req.CategoryID)},
		Notes:       sanitizeInput(req.Notes),
	}, nil
}

type paginationDTO struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type incomeSummaryDTO struct {
	TotalAmount json.Number `json:"totalAmount"`
	Count       int64       `json:"count"`
}

type incomePageDTO struct {
	Income     []transactionDTO `json:"income"`
	Pagination paginationDTO    `json:"pagination"`
	Summary    incomeSummaryDTO `json:"summary"`
}

func toIncomePageDTO(p services.IncomePage) incomePageDTO {
	return incomePageDTO{
		Income: toTransactionDTOs(p.Income),
		Pagination: paginationDTO{
			Total:      p.Total,
			Page:       p.Page,
			Limit:      p.Limit,
			TotalPages: p.TotalPages,
		},
		Summary: incomeSummaryDTO{
			TotalAmount: amount(p.TotalAmount),
			Count:       p.Total,
		},
	}
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

type budgetDTO struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Amount            json.Number  `json:"amount"`
	Period            string       `json:"period"`
	StartDate         string       `json:"startDate"`
	EndDate           string       `json:"endDate"`
	Category          *categoryDTO `json:"category,omitempty"`
	Spent             json.Number  `json:"spent"`
	Remaining         json.Number  `json:"remaining"`
	PercentageUsed    json.Number  `json:"percentageUsed"`
	IsOverBudget      bool         `json:"isOverBudget"`
	DaysRemaining     int          `json:"daysRemaining"`
	DailyBudget       json.Number  `json:"dailyBudget"`
	ProjectedSpending json.Number  `json:"projectedSpending"`
	Level             string       `json:"level"`
}

func toBudgetDTO(p services.BudgetProgress) budgetDTO {
	d := budgetDTO{
		ID:                p.ID,
		Name:              p.Name,
		Amount:            amount(p.Amount),
		Period:            string(p.Period),
		StartDate:         isoDate(p.StartDate),
		EndDate:           isoDate(p.EndDate),
		Spent:             amount(p.Spent),
		Remaining:         amount(p.Remaining),
		PercentageUsed:    json.Number(p.PercentageUsed.StringFixed(2)),
		IsOverBudget:      p.IsOverBudget,
		DaysRemaining:     p.DaysRemaining,
		DailyBudget:       json.Number(p.DailyBudget.StringFixed(2)),
		ProjectedSpending: json.Number(p.ProjectedSpending.StringFixed(2)),
		Level:             p.Level,
	}
	if p.Category != nil {
		c := toCategoryDTO(*p.Category)
		d.Category = &c
	}
	return d
}

func toBudgetDTOs(ps []services.BudgetProgress) []budgetDTO {
	out := make([]budgetDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, toBudgetDTO(p))
	}
	return out
}

type createBudgetRequest struct {
	Name       string      `json:"name"`
	Amount     json.Number `json:"amount"`
	Period     string      `json:"period"`
	StartDate  string      `json:"startDate"`
	EndDate    string      `json:"endDate"`
	CategoryID string      `json:"categoryId"`
}

func (req createBudgetRequest) toDomain(userID string) (core.Budget, error) {
	m, err := ParseMoney(req.Amount)
	if err != nil {
		return core.Budget{}, err
	}
	start, err := ParseDate(req.StartDate)
	if err != nil {
		return core.Budget{}, err
	}
	end, err := ParseDate(req.EndDate)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		UserID:     userID,
		Name:       sanitizeInput(req.Name),
		Amount:     m,
		Period:     core.BudgetPeriod(req.Period),
		StartDate:  start,
		EndDate:    end,
		CategoryID: sanitizeInput(req.CategoryID),
	}, nil
}

type notificationDTO struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Type      string         `json:"type"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	IsRead    bool           `json:"isRead"`
	CreatedAt time.Time      `json:"createdAt"`
}

func toNotificationDTOs(ns []core.Notification) []notificationDTO {
	out := make([]notificationDTO, 0, len(ns))
	for _, n := range ns {
		out = append(out, notificationDTO{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      string(n.Type),
			Metadata:  n.Metadata,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}

type preferencesDTO struct {
	BudgetAlerts       bool `json:"budgetAlerts"`
	SpendingWarnings   bool `json:"spendingWarnings"`
	GoalNotifications  bool `json:"goalNotifications"`
	PaymentReminders   bool `json:"paymentReminders"`
	EmailNotifications bool `json:"emailNotifications"`
	PushNotifications  bool `json:"pushNotifications"`
}

func toPreferencesDTO(p core.NotificationPreferences) preferencesDTO {
	return preferencesDTO{
		BudgetAlerts:       p.BudgetAlerts,
		SpendingWarnings:   p.SpendingWarnings,
		GoalNotifications:  p.GoalNotifications,
		PaymentReminders:   p.PaymentReminders,
		EmailNotifications: p.EmailNotifications,
		PushNotifications:  p.PushNotifications,
	}
}

type preferencesPatchRequest struct {
	BudgetAlerts       *bool `json:"budgetAlerts"`
	SpendingWarnings   *bool `json:"spendingWarnings"`
	GoalNotifications  *bool `json:"goalNotifications"`
	PaymentReminders   *bool `json:"paymentReminders"`
	EmailNotifications *bool `json:"emailNotifications"`
	PushNotifications  *bool `json:"pushNotifications"`
}

func (p preferencesPatchRequest) toPatch() services.PreferencesPatch {
	return services.PreferencesPatch(p)
}

type categoryAmountDTO struct {
	Name   string      `json:"name"`
	Color  string      `json:"color,omitempty"`
	Icon   string      `json:"icon,omitempty"`
	Amount json.Number `json:"amount"`
}

type monthOverviewDTO struct {
	Month      string              `json:"month"`
	Income     json.Number         `json:"income"`
	Expenses   json.Number         `json:"expenses"`
	Net        json.Number         `json:"net"`
	ByCategory []categoryAmountDTO `json:"byCategory"`
}

func toMonthOverviewDTO(o core.MonthOverview) monthOverviewDTO {
	cats := make([]categoryAmountDTO, 0, len(o.ByCategory))
	for _, c := range o.ByCategory {
		cats = append(cats, categoryAmountDTO{Name: c.Name, Color: c.Color, Icon: c.Icon, Amount: amount(c.Amount)})
	}
	return monthOverviewDTO{
		Month:      time.Date(o.Year, time.Month(o.Month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
		Income:     amount(o.Income),
		Expenses:   amount(o.Expenses),
		Net:        amount(o.Net()),
		ByCategory: cats,
	}
}

type countsDTO struct {
	Transactions int64 `json:"transactions"`
	Categories   int64 `json:"categories"`
	Budgets      int64 `json:"budgets"`
}

type dashboardDTO struct {
	Overview monthOverviewDTO `json:"overview"`
	Recent   []transactionDTO `json:"recentTransactions"`
	Budgets  []budgetDTO      `json:"budgets"`
	Counts   countsDTO        `json:"counts"`
}

func toDashboardDTO(d services.Dashboard) dashboardDTO {
	return dashboardDTO{
		Overview: toMonthOverviewDTO(d.Overview),
		Recent:   toTransactionDTOs(d.Recent),
		Budgets:  toBudgetDTOs(d.Budgets),
		Counts:   countsDTO(d.Counts),
	}
}

type summaryDTO struct {
	Income   json.Number `json:"income"`
	Expenses json.Number `json:"expenses"`
	Net      json.Number `json:"net"`
	Count    int         `json:"transactionCount"`
	Average  json.Number `json:"averageTransaction"`
}

type trendDTO struct {
	Month    string      `json:"month"`
	Income   json.Number `json:"income"`
	Expenses json.Number `json:"expenses"`
	Net      json.Number `json:"net"`
}

type shareDTO struct {
	Name       string      `json:"name"`
	Color      string      `json:"color,omitempty"`
	Amount     json.Number `json:"amount"`
	Percentage json.Number `json:"percentage"`
}

type reportDTO struct {
	From        string      `json:"from"`
	To          string      `json:"to"`
	Summary     summaryDTO  `json:"summary"`
	Trends      []trendDTO  `json:"monthlyTrends"`
	Categories  []shareDTO  `json:"categoryDistribution"`
	SavingsRate json.Number `json:"savingsRate"`
}

func toReportDTO(r services.Report) reportDTO {
	trends := make([]trendDTO, 0, len(r.Trends))
	for _, t := range r.Trends {
		trends = append(trends, trendDTO{Month: t.Month, Income: amount(t.Income), Expenses: amount(t.Expenses), Net: amount(t.Net)})
	}
	shares := make([]shareDTO, 0, len(r.Categories))
	for _, c := range r.Categories {
		shares = append(shares, shareDTO{
			Name:       c.Name,
			Color:      c.Color,
			Amount:     amount(c.Amount),
			Percentage: json.Number(c.Percentage.StringFixed(2)),
		})
	}
	return reportDTO{
		From: isoDate(r.From),
		To:   isoDate(r.To),
		Summary: summaryDTO{
			Income:   amount(r.Summary.Income),
			Expenses: amount(r.Summary.Expenses),
			Net:      amount(r.Summary.Net),
			Count:    r.Summary.Count,
			Average:  json.Number(r.Summary.Average.StringFixed(2)),
		},
		Trends:      trends,
		Categories:  shares,
		SavingsRate: json.Number(r.SavingsRate.StringFixed(2)),
	}
}
