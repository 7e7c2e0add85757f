package service

import "html/template"

var statusMessages = map[string]string{
	"pending":          "Your parcel has been booked and is pending assignment.",
	"assigned":         "Your parcel has been assigned to a delivery agent.",
	"picked_up":        "Your parcel has been picked up by our delivery agent.",
	"in_transit":       "Your parcel is in transit to the destination.",
	"out_for_delivery": "Your parcel is out for delivery.",
	"delivered":        "Your parcel has been successfully delivered.",
	"failed":           "There was an issue with your parcel delivery.",
	"returned":         "Your parcel has been returned to the sender.",
}

const defaultStatusMessage = "Your parcel status has been updated."

type statusData struct {
	Name           string
	TrackingNumber string
	Status         string
	Message        string
	Notes          string
	TrackURL       string
}

var statusTemplate = template.Must(template.New("status").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #4CAF50;">Parcel Status Update</h2>
  <p>Hello {{.Name}},</p>
  <p>Your parcel with tracking number <strong>{{.TrackingNumber}}</strong> has been updated.</p>
  <div style="background-color: #f5f5f5; padding: 20px; border-radius: 5px; margin: 20px 0;">
    <h3 style="margin-top: 0;">Status: {{.Status}}</h3>
    <p>{{.Message}}</p>
    {{if .Notes}}<p><strong>Notes:</strong> {{.Notes}}</p>{{end}}
  </div>
  <p>You can track your parcel using this link:</p>
  <a href="{{.TrackURL}}" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Track Your Parcel</a>
  <p style="margin-top: 30px; color: #666; font-size: 12px;">This is an automated message. Please do not reply to this email.</p>
</div>`))

type welcomeData struct {
	Name         string
	DashboardURL string
	Year         int
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<div style="font-family: 'Segoe UI', Roboto, sans-serif; max-width: 500px; margin: 0 auto; background: white; border-radius: 12px; overflow: hidden;">
  <div style="background: linear-gradient(to right, #4CAF50, #45a049); padding: 30px; text-align: center; color: white;">
    <h1 style="margin: 0; font-size: 28px; font-weight: 600;">Courier Pro</h1>
    <p style="margin: 8px 0 0; opacity: 0.9; font-size: 14px;">Smart Logistics Solution</p>
  </div>
  <div style="padding: 40px 30px;">
    <h2 style="color: #2c3e50; margin: 0 0 20px; font-size: 24px;">Welcome, {{.Name}}!</h2>
    <p style="color: #555; line-height: 1.6; font-size: 16px;">Your account has been successfully created and is ready to use.</p>
    <div style="background: #f8f9fa; padding: 20px; border-radius: 8px; margin: 25px 0;">
      <h3 style="color: #4CAF50; margin: 0 0 15px; font-size: 18px;">What You Can Do:</h3>
      <ul style="margin: 0; padding-left: 20px; color: #555; line-height: 1.8;">
        <li>Book parcel pickups instantly</li>
        <li>Track deliveries in real-time</li>
        <li>Manage all your shipments</li>
        <li>Get live notifications</li>
      </ul>
    </div>
    <a href="{{.DashboardURL}}" style="display: inline-block; background: #4CAF50; color: white; padding: 14px 30px; text-decoration: none; border-radius: 8px; font-weight: 600;">Go to Dashboard</a>
  </div>
  <div style="background: #f8f9fa; padding: 20px; text-align: center; border-top: 1px solid #eee; color: #666; font-size: 12px;">
    <p style="margin: 0 0 10px;">This is an automated message. Please do not reply.</p>
    <p style="margin: 0;">&copy; {{.Year}} Courier Pro. All rights reserved.</p>
  </div>
</div>`))
