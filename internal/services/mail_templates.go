package services

import (
	"fmt"
	"html"

	"support_back_end/internal/models"
)

func newRequestHTML(req *models.HelpRequest) string {
	reason := ""
	if req.Reason != nil {
		reason = *req.Reason
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Nouvelle demande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Nouvelle demande d'assistance</h2>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<tr><td style="padding: 8px; border: 1px solid #ddd;"><strong>Référence</strong></td><td style="padding: 8px; border: 1px solid #ddd;">%s</td></tr>
			<tr><td style="padding: 8px; border: 1px solid #ddd;"><strong>Type</strong></td><td style="padding: 8px; border: 1px solid #ddd;">%s</td></tr>
			<tr><td style="padding: 8px; border: 1px solid #ddd;"><strong>Commande</strong></td><td style="padding: 8px; border: 1px solid #ddd;">%s</td></tr>
			<tr><td style="padding: 8px; border: 1px solid #ddd;"><strong>Client</strong></td><td style="padding: 8px; border: 1px solid #ddd;">%s (%s)</td></tr>
			<tr><td style="padding: 8px; border: 1px solid #ddd;"><strong>Motif</strong></td><td style="padding: 8px; border: 1px solid #ddd;">%s</td></tr>
		</table>
		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>Le backend support</strong>
		</p>
	</div>
</body>
</html>`,
		req.ReferenceCode(),
		html.EscapeString(req.Type),
		html.EscapeString(req.OrderNumber),
		html.EscapeString(req.CustomerName),
		html.EscapeString(req.CustomerEmail),
		html.EscapeString(reason),
	)
}

func newMessageHTML(req *models.HelpRequest, author, body string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Nouveau message</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Nouveau message — demande %s</h2>
		<p><strong>%s</strong> a écrit :</p>
		<blockquote style="border-left: 4px solid #667eea; margin: 16px 0; padding: 8px 16px; background-color: #f5f5f5; color: #333;">
			%s
		</blockquote>
		<p style="color: #555;">Commande concernée : %s</p>
	</div>
</body>
</html>`,
		req.ReferenceCode(),
		html.EscapeString(author),
		html.EscapeString(body),
		html.EscapeString(req.OrderNumber),
	)
}

func statusChangeHTML(req *models.HelpRequest) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Mise à jour de votre demande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Votre demande %s</h2>
		<p>Bonjour %s,</p>
		<p>Votre demande concernant la commande <strong>%s</strong> est maintenant : <strong>%s</strong>.</p>
		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe support</strong>
		</p>
	</div>
</body>
</html>`,
		req.ReferenceCode(),
		html.EscapeString(req.CustomerName),
		html.EscapeString(req.OrderNumber),
		statusLabel(req.Status),
	)
}
