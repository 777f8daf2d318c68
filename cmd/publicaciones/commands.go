package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/eia/publicaciones/internal/auth"
	"github.com/eia/publicaciones/internal/postings"
	"github.com/eia/publicaciones/internal/session"
	"github.com/eia/publicaciones/pkg/client"
	"github.com/eia/publicaciones/pkg/domain"
)

// ask returns value when set, otherwise prompts for it.
func (c *cli) ask(value, message, def string) (string, error) {
	if value != "" {
		return value, nil
	}
	if !c.opts.interactive {
		return "", fmt.Errorf("falta %s", strings.ToLower(message))
	}
	return c.opts.prompt.Input(message, def)
}

func (c *cli) askSecret(value, message string) (string, error) {
	if value != "" {
		return value, nil
	}
	if !c.opts.interactive {
		return "", fmt.Errorf("falta %s", strings.ToLower(message))
	}
	return c.opts.prompt.Password(message)
}

// sessionError turns controller session errors into a hint to log in.
func sessionError(err error) error {
	if postings.SessionLost(err) {
		return fmt.Errorf("%s (publicaciones login)", postings.MsgNoSession)
	}
	return err
}

func (c *cli) loginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Inicia sesión con tu correo institucional",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email, err = c.ask(email, "Correo electrónico", ""); err != nil {
				return err
			}
			if password, err = c.askSecret(password, "Contraseña"); err != nil {
				return err
			}
			user, err := c.flow.Login(cmd.Context(), auth.Credentials{Email: email, Password: password})
			if err != nil {
				return errors.New(auth.LoginMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bienvenido, %s\n", user.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "correo electrónico")
	cmd.Flags().StringVar(&password, "password", "", "contraseña (se pide si no se indica)")
	return cmd
}

func (c *cli) registerCommand() *cobra.Command {
	var form auth.RegistrationForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Crea una cuenta nueva",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if form.FullName, err = c.ask(form.FullName, "Nombre completo", ""); err != nil {
				return err
			}
			if form.Email, err = c.ask(form.Email, "Correo electrónico", ""); err != nil {
				return err
			}
			if form.Password, err = c.askSecret(form.Password, "Contraseña"); err != nil {
				return err
			}
			if form.Phone, err = c.ask(form.Phone, "Número de teléfono", ""); err != nil {
				return err
			}
			if _, err := c.flow.Register(cmd.Context(), form); err != nil {
				var fe domain.FieldErrors
				if errors.As(err, &fe) {
					return fe
				}
				return errors.New(auth.RegisterMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registro exitoso. Inicia sesión con: publicaciones login --email %s\n", strings.TrimSpace(form.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&form.FullName, "name", "", "nombre completo")
	cmd.Flags().StringVar(&form.Email, "email", "", "correo electrónico")
	cmd.Flags().StringVar(&form.Password, "password", "", "contraseña")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "número de teléfono")
	return cmd
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Cierra la sesión guardada",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.flow.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada.")
			return nil
		},
	}
}

func (c *cli) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Muestra el usuario de la sesión",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userCmd, err := c.ctrl.LoadCurrentUser(cmd.Context())
			if err != nil {
				return sessionError(err)
			}
			u := postings.Apply(postings.Initial(), userCmd).User
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", u.DisplayName(), u.Email)
			fmt.Fprintf(out, "id: %s\n", u.ID)
			tok, _ := c.store.Token()
			claims, err := session.ParseClaims(tok)
			switch {
			case err != nil, claims.ExpiresAt.IsZero():
			case claims.Expired(time.Now()):
				fmt.Fprintln(out, "sesión expirada")
			default:
				fmt.Fprintf(out, "sesión válida hasta: %s\n", claims.ExpiresAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}
}

func (c *cli) listCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista las publicaciones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listCmd, err := c.ctrl.LoadPostings(cmd.Context())
			if err != nil {
				if postings.SessionLost(err) {
					return sessionError(err)
				}
				c.logger.Error("list failed", "error", err)
				return errors.New(postings.MsgListFailed)
			}
			s := postings.Apply(postings.Initial(), listCmd)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				list := s.Postings
				if list == nil {
					list = []domain.Posting{}
				}
				return enc.Encode(list)
			}
			if len(s.Postings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), postings.MsgEmptyList)
				return nil
			}
			for _, p := range s.Postings {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", p.ID, postings.Describe(p))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "salida en JSON")
	return cmd
}

func (c *cli) createCommand() *cobra.Command {
	var total, zone, description string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Crea una publicación",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if total, err = c.ask(total, "Número total de puestos", ""); err != nil {
				return err
			}
			if zone, err = c.ask(zone, "Zona", ""); err != nil {
				return err
			}
			if !cmd.Flags().Changed("description") && c.opts.interactive {
				if description, err = c.opts.prompt.Input("Descripción", ""); err != nil {
					return err
				}
			}
			draft, errs := domain.ParsePostingDraft(total, zone, description)
			if len(errs) > 0 {
				return errs
			}

			userCmd, err := c.ctrl.LoadCurrentUser(cmd.Context())
			if err != nil {
				return sessionError(err)
			}
			user := postings.Apply(postings.Initial(), userCmd).User
			created, err := c.ctrl.CreatePosting(cmd.Context(), draft, user)
			if err != nil {
				if postings.SessionLost(err) {
					return sessionError(err)
				}
				return errors.New(postings.MsgCreateFailed)
			}
			s := postings.Apply(postings.Initial(), created)
			p := s.Postings[len(s.Postings)-1]
			fmt.Fprintf(cmd.OutOrStdout(), "Publicación creada [%s] %s\n", p.ID, postings.Describe(p))
			return nil
		},
	}
	cmd.Flags().StringVar(&total, "positions", "", "número total de puestos")
	cmd.Flags().StringVar(&zone, "zone", "", "zona")
	cmd.Flags().StringVar(&description, "description", "", "descripción")
	return cmd
}

func (c *cli) updateCommand() *cobra.Command {
	var total, zone, description string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Actualiza una publicación propia",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.ID(args[0])
			flags := cmd.Flags()
			var req client.UpdatePostingRequest

			if !flags.Changed("positions") && !flags.Changed("zone") && !flags.Changed("description") {
				// Nothing given: edit every field starting from the current values.
				listCmd, err := c.ctrl.LoadPostings(cmd.Context())
				if err != nil {
					return sessionError(err)
				}
				current, ok := postings.Apply(postings.Initial(), listCmd).Find(id)
				if !ok {
					return fmt.Errorf("publicación %s no encontrada", id)
				}
				ed := postings.NewEditor(current)
				if total, err = c.ask("", "Número total de puestos", ed.TotalPositions); err != nil {
					return err
				}
				if zone, err = c.ask("", "Zona", ed.Zone); err != nil {
					return err
				}
				if description, err = c.ask("", "Descripción", ed.Description); err != nil {
					return err
				}
				ed = ed.SetTotalPositions(total).SetZone(zone).SetDescription(description)
				ed, updateCmd, err := ed.Submit(cmd.Context(), c.ctrl)
				if err != nil {
					return updateError(err, ed.Fields)
				}
				s := postings.Apply(postings.Initial(), postings.ReplaceAll{Postings: []domain.Posting{current}}, updateCmd)
				fmt.Fprintf(cmd.OutOrStdout(), "Publicación actualizada [%s] %s\n", id, postings.Describe(s.Postings[0]))
				return nil
			}

			errs := domain.FieldErrors{}
			if flags.Changed("positions") {
				n, err := strconv.Atoi(strings.TrimSpace(total))
				if err != nil || n < 0 {
					errs[domain.FieldTotalPositions] = "El número total de puestos debe ser un entero mayor o igual a 0"
				}
				req.TotalPositions = &n
			}
			if flags.Changed("zone") {
				z := strings.TrimSpace(zone)
				if z == "" {
					errs[domain.FieldZone] = "La zona es requerida"
				}
				req.Zone = &z
			}
			if flags.Changed("description") {
				d := strings.TrimSpace(description)
				req.Description = &d
			}
			if len(errs) > 0 {
				return errs
			}
			updated, err := c.ctrl.Patch(cmd.Context(), id, req)
			if err != nil {
				return updateError(err, nil)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Publicación actualizada [%s] %s\n", id, postings.Describe(*updated))
			return nil
		},
	}
	cmd.Flags().StringVar(&total, "positions", "", "número total de puestos")
	cmd.Flags().StringVar(&zone, "zone", "", "zona")
	cmd.Flags().StringVar(&description, "description", "", "descripción")
	return cmd
}

func updateError(err error, fields domain.FieldErrors) error {
	switch {
	case len(fields) > 0:
		return fields
	case postings.SessionLost(err):
		return sessionError(err)
	}
	return errors.New(postings.MsgUpdateFailed)
}

func (c *cli) deleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Elimina una publicación propia",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := postings.Remover{}.Request(domain.ID(args[0]), c.ctrl.HasSession())
			if r.State == postings.Alerting {
				return errors.New(r.Alert)
			}
			if !yes {
				if !c.opts.interactive {
					return errors.New("confirma con --yes para eliminar sin preguntar")
				}
				ok, err := c.opts.prompt.Confirm(postings.MsgConfirmDelete)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelado.")
					return nil
				}
			}
			r, _, err := r.Delete(cmd.Context(), c.ctrl)
			if err != nil {
				c.logger.Error("delete failed", "id", args[0], "error", err)
				return errors.New(r.Alert)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Publicación %s eliminada.\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "no pedir confirmación")
	return cmd
}
