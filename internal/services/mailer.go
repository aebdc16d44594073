package services

import (
	"fmt"
	"log"

	"support_back_end/internal/config"
	"support_back_end/internal/models"

	"github.com/wneessen/go-mail"
)

// Mailer : notifications email côté support et côté client.
// Tous les envois sont "best effort" : une erreur est loggée, jamais
// remontée à la requête qui a déclenché l'envoi.
type Mailer struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	adminEmail string
}

func NewMailer(cfg config.Config) *Mailer {
	return &Mailer{
		host:       cfg.SMTPHost,
		port:       cfg.SMTPPort,
		username:   cfg.SMTPUsername,
		password:   cfg.SMTPPassword,
		from:       cfg.MailFrom,
		adminEmail: cfg.AdminNotifyEmail,
	}
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	msg := mail.NewMsg()

	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// NotifyAdminNewRequest prévient le support qu'une nouvelle demande est arrivée
func (m *Mailer) NotifyAdminNewRequest(req *models.HelpRequest) {
	subject := fmt.Sprintf("🆕 Nouvelle demande %s — commande %s", req.Type, req.OrderNumber)
	if err := m.send(m.adminEmail, subject, newRequestHTML(req)); err != nil {
		log.Printf("❌ Erreur envoi notification admin: %v", err)
	}
}

// NotifyAdminNewMessage prévient le support qu'un client a écrit dans le chat
func (m *Mailer) NotifyAdminNewMessage(req *models.HelpRequest, body string) {
	subject := fmt.Sprintf("💬 Nouveau message client — demande %s", req.ReferenceCode())
	if err := m.send(m.adminEmail, subject, newMessageHTML(req, req.CustomerName, body)); err != nil {
		log.Printf("❌ Erreur envoi notification admin: %v", err)
	}
}

// NotifyCustomerNewMessage prévient le client qu'un conseiller a répondu
func (m *Mailer) NotifyCustomerNewMessage(req *models.HelpRequest, body string) {
	subject := fmt.Sprintf("💬 Réponse du support — demande %s", req.ReferenceCode())
	if err := m.send(req.CustomerEmail, subject, newMessageHTML(req, "Le support", body)); err != nil {
		log.Printf("❌ Erreur envoi notification client: %v", err)
	}
}

// NotifyCustomerStatusChange prévient le client d'un changement de statut
func (m *Mailer) NotifyCustomerStatusChange(req *models.HelpRequest) {
	subject := fmt.Sprintf("%s Votre demande %s — %s", statusIcon(req.Status), req.ReferenceCode(), statusLabel(req.Status))
	if err := m.send(req.CustomerEmail, subject, statusChangeHTML(req)); err != nil {
		log.Printf("❌ Erreur envoi notification client: %v", err)
	}
}

func statusIcon(status string) string {
	switch status {
	case models.StatusInProgress:
		return "🔄"
	case models.StatusApproved:
		return "✅"
	case models.StatusRejected:
		return "❌"
	case models.StatusCompleted:
		return "🎉"
	default:
		return "📋"
	}
}

func statusLabel(status string) string {
	switch status {
	case models.StatusPending:
		return "en attente"
	case models.StatusInProgress:
		return "en cours de traitement"
	case models.StatusApproved:
		return "approuvée"
	case models.StatusRejected:
		return "refusée"
	case models.StatusCompleted:
		return "traitée"
	default:
		return status
	}
}
