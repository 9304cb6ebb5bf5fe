// Package steps binds the bilingual Bugs Form phrases to the filler and the
// validity assertions, replaying each step on every open page.
package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/config"
	"github.com/xkilldash9x/formprobe/internal/diagnostics"
	"github.com/xkilldash9x/formprobe/internal/field"
	"github.com/xkilldash9x/formprobe/internal/form"
)

// PageSource hands out the fixed set of pages every step iterates over.
type PageSource interface {
	Pages() []browser.Page
}

// Suite holds the suite-scoped collaborators of the step definitions.
type Suite struct {
	baseURL  string
	pages    PageSource
	filler   *form.Filler
	asserter *form.Asserter
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// Deps groups what NewSuite needs.
type Deps struct {
	BaseURL  string
	Pages    PageSource
	Filler   *form.Filler
	Asserter *form.Asserter
	// ActionsPerSecond paces page actions; zero or less means unlimited.
	ActionsPerSecond float64
	Logger           *zap.Logger
}

// NewSuite creates the step definitions.
func NewSuite(d Deps) *Suite {
	return &Suite{
		baseURL:  d.BaseURL,
		pages:    d.Pages,
		filler:   d.Filler,
		asserter: d.Asserter,
		limiter:  NewPacer(d.ActionsPerSecond),
		logger:   d.Logger.Named("steps"),
	}
}

// NewPacer returns a limiter allowing perSecond page actions, or an
// unlimited one when perSecond is not positive.
func NewPacer(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// InitializeScenario registers hooks and step definitions.
func (s *Suite) InitializeScenario(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, scn *godog.Scenario) (context.Context, error) {
		ctx = diagnostics.WithScenario(ctx, scn.Name)
		return withWorld(ctx, &World{Scenario: scn.Name}), nil
	})
	sc.After(func(ctx context.Context, scn *godog.Scenario, err error) (context.Context, error) {
		if err != nil {
			s.logger.Error("Scenario failed.", zap.String("scenario", scn.Name), zap.Error(err))
		}
		return ctx, nil
	})

	// Given
	sc.Step(`^(?:User is on the Bugs Form page|El usuario está en la página del formulario de Bugs)$`, s.openForm)

	// When
	sc.Step(`^(?:User fills the form without last name|El usuario completa el formulario sin apellido)$`,
		func(ctx context.Context) error {
			return s.fill(ctx, form.Overrides{LastName: form.String("")})
		})
	sc.Step(`^(?:User clicks Register|El usuario hace clic en Registrar)$`, s.clickRegister)
	sc.Step(`^(?:User refreshes and fills the form with phone|El usuario refresca la página y completa el formulario con teléfono) "([^"]+)"$`,
		func(ctx context.Context, phone string) error {
			return s.refreshAndFill(ctx, form.Overrides{Phone: form.String(phone)})
		})
	sc.Step(`^(?:User fills the form with phone|El usuario completa el formulario con teléfono) "([^"]+)"$`,
		func(ctx context.Context, phone string) error {
			return s.fill(ctx, form.Overrides{Phone: form.String(phone)})
		})
	sc.Step(`^(?:User fills the form with email|El usuario completa el formulario con email) "([^"]+)"$`,
		func(ctx context.Context, email string) error {
			return s.fill(ctx, form.Overrides{Email: form.String(email)})
		})
	sc.Step(`^(?:User fills the form with password|El usuario completa el formulario con contraseña) "([^"]+)"$`,
		func(ctx context.Context, password string) error {
			return s.fill(ctx, form.Overrides{Password: form.String(password)})
		})
	sc.Step(`^(?:User refreshes and fills the form with password|El usuario refresca la página y completa el formulario con contraseña) "([^"]+)"$`,
		func(ctx context.Context, password string) error {
			return s.refreshAndFill(ctx, form.Overrides{Password: form.String(password)})
		})
	sc.Step(`^(?:User fills the form without accepting terms|El usuario completa el formulario sin aceptar los términos)$`,
		func(ctx context.Context) error {
			return s.fill(ctx, form.Overrides{AcceptTerms: form.Bool(false)})
		})
	sc.Step(`^(?:User refreshes and fills the form selecting country|El usuario refresca la página y completa el formulario seleccionando país) "([^"]+)" (?:and accepting terms|y aceptando los términos)$`,
		func(ctx context.Context, country string) error {
			return s.refreshAndFill(ctx, form.Overrides{Country: form.String(country), AcceptTerms: form.Bool(true)})
		})
	sc.Step(`^(?:User fills the form with|El usuario completa el formulario con):$`, s.fillTable)

	// Then
	sc.Step(`^(First Name|Last Name|Phone|Email|Password|Country) field should be (valid|invalid)$`, s.fieldShouldBe)
	sc.Step(`^El campo (Nombre|Apellido|Teléfono|Email|Contraseña|País) debería ser (válido|inválido)$`, s.fieldShouldBe)
	sc.Step(`^(?:Terms checkbox should be invalid or required|El checkbox de Términos debería ser obligatorio o inválido)$`, s.termsShouldBeRequired)
}

// fieldNames maps every phrase spelling to its catalogue entry.
var fieldNames = map[string]field.Field{
	"First Name": field.FirstName,
	"Last Name":  field.LastName,
	"Phone":      field.Phone,
	"Email":      field.Email,
	"Password":   field.Password,
	"Country":    field.Country,
	"Nombre":     field.FirstName,
	"Apellido":   field.LastName,
	"Teléfono":   field.Phone,
	"Contraseña": field.Password,
	"País":       field.Country,
}

var validityWords = map[string]bool{
	"valid":    true,
	"válido":   true,
	"invalid":  false,
	"inválido": false,
}

func (s *Suite) openForm(ctx context.Context) error {
	if s.baseURL == "" {
		return config.ErrMissingBaseURL
	}
	return s.eachPage(ctx, "navigate", func(ctx context.Context, p browser.Page) error {
		return p.Navigate(ctx, s.baseURL)
	})
}

func (s *Suite) refresh(ctx context.Context) error {
	return s.eachPage(ctx, "reload", func(ctx context.Context, p browser.Page) error {
		return p.Reload(ctx)
	})
}

func (s *Suite) fill(ctx context.Context, o form.Overrides) error {
	data := form.Merge(form.Defaults(), o)
	err := s.eachPage(ctx, "fill", func(ctx context.Context, p browser.Page) error {
		return s.filler.Fill(ctx, p, data)
	})
	if err != nil {
		return err
	}
	w := WorldFrom(ctx)
	w.Last, w.Filled = data, true
	return nil
}

func (s *Suite) refreshAndFill(ctx context.Context, o form.Overrides) error {
	if err := s.refresh(ctx); err != nil {
		return err
	}
	return s.fill(ctx, o)
}

func (s *Suite) fillTable(ctx context.Context, table *godog.Table) error {
	o, err := form.ParseOverrides(tableRows(table))
	if err != nil {
		return err
	}
	return s.fill(ctx, o)
}

func (s *Suite) clickRegister(ctx context.Context) error {
	return s.eachPage(ctx, "click register", func(ctx context.Context, p browser.Page) error {
		return p.ButtonByName(field.RegisterButton).Click(ctx)
	})
}

func (s *Suite) fieldShouldBe(ctx context.Context, name, state string) error {
	f, ok := fieldNames[name]
	if !ok {
		return fmt.Errorf("unknown field %q", name)
	}
	want, ok := validityWords[state]
	if !ok {
		return fmt.Errorf("unknown validity %q", state)
	}
	err := s.eachPage(ctx, "assert validity", func(ctx context.Context, p browser.Page) error {
		return s.asserter.ExpectValidity(ctx, p, f, want, form.Soft)
	})
	var assertErr *form.AssertionError
	if errors.As(err, &assertErr) {
		s.logMismatch(ctx, f, assertErr)
	}
	return err
}

// logMismatch reports a failed validity expectation together with the value
// the scenario last typed into the field.
func (s *Suite) logMismatch(ctx context.Context, f field.Field, e *form.AssertionError) {
	w := WorldFrom(ctx)
	fields := []zap.Field{
		zap.String("scenario", w.Scenario),
		zap.String("field", e.Field),
		zap.String("page", e.Page),
		zap.Bool("expected_valid", e.Expected),
	}
	if w.Filled {
		if v, ok := w.Last.Value(f); ok {
			fields = append(fields, zap.String("filled_value", v))
		}
	} else {
		fields = append(fields, zap.Bool("filled", false))
	}
	s.logger.Warn("Validity expectation failed.", fields...)
}

func (s *Suite) termsShouldBeRequired(ctx context.Context) error {
	return s.eachPage(ctx, "assert terms required", func(ctx context.Context, p browser.Page) error {
		return s.asserter.ExpectCheckboxRequired(ctx, p)
	})
}

// eachPage runs fn on every page in order and stops at the first failure.
func (s *Suite) eachPage(ctx context.Context, action string, fn func(context.Context, browser.Page) error) error {
	pages := s.pages.Pages()
	if len(pages) == 0 {
		return errors.New("no browser pages are open")
	}
	for _, p := range pages {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s on %s: %w", action, p.ID(), err)
		}
		s.logger.Debug("Running step action.", zap.String("action", action), zap.String("page", p.ID()))
		if err := fn(ctx, p); err != nil {
			return fmt.Errorf("%s on %s: %w", action, p.ID(), err)
		}
	}
	return nil
}

func tableRows(table *godog.Table) [][]string {
	if table == nil {
		return nil
	}
	rows := make([][]string, 0, len(table.Rows))
	for _, r := range table.Rows {
		cells := make([]string, 0, len(r.Cells))
		for _, c := range r.Cells {
			cells = append(cells, strings.TrimSpace(c.Value))
		}
		rows = append(rows, cells)
	}
	return rows
}
