package tools

import "github.com/kithai-ai/voicecore/pkg/core/types"

// CoreTools returns the built-in tool declarations that ship with every
// session. save_memory resolves silently; launch_app interrupts the
// model's current generation.
func CoreTools() []types.ToolDeclaration {
	return []types.ToolDeclaration{
		{
			Name:        "save_memory",
			Description: "Saves a piece of information to your long-term memory about the user. Use this ONLY when the user explicitly asks you to remember, note, or not forget something.",
			Parameters: []byte(`{
				"type": "object",
				"properties": {
					"text_to_remember": {
						"type": "string",
						"description": "The specific fact or piece of information to save to memory."
					}
				},
				"required": ["text_to_remember"]
			}`),
			Enabled:    true,
			Scheduling: types.SchedulingSilent,
		},
		{
			Name:        "launch_app",
			Description: "Launches one of the user's installed applications in a full-screen view.",
			Parameters: []byte(`{
				"type": "object",
				"properties": {
					"app_name": {
						"type": "string",
						"description": "The exact title of the app to launch from the list of installed applications."
					}
				},
				"required": ["app_name"]
			}`),
			Enabled:    true,
			Scheduling: types.SchedulingInterrupt,
		},
	}
}

// IntegrationTools returns the business-assistant declarations exposed
// when the user's workspace integration account is connected.
func IntegrationTools() []types.ToolDeclaration {
	return []types.ToolDeclaration{
		{
			Name:        "send_email",
			Description: "Sends an email to a specified recipient.",
			Parameters: []byte(`{
				"type": "object",
				"properties": {
					"recipient": {"type": "string", "description": "The email address of the recipient."},
					"subject": {"type": "string", "description": "The subject line of the email."},
					"body": {"type": "string", "description": "The body content of the email."}
				},
				"required": ["recipient", "subject", "body"]
			}`),
			Enabled:    true,
			Scheduling: types.SchedulingInterrupt,
		},
		{
			Name:        "read_emails",
			Description: "Reads the user's latest emails. Can be filtered by sender, subject, or read status.",
			Parameters: []byte(`{
				"type": "object",
				"properties": {
					"count": {"type": "number", "description": "The number of emails to read. Defaults to 5."},
					"from": {"type": "string", "description": "Filter emails from a specific sender."},
					"subject": {"type": "string", "description": "Filter emails with a specific subject line."},
					"unreadOnly": {"type": "boolean", "description": "Only read unread emails. Defaults to true."}
				}
			}`),
			Enabled:    true,
			Scheduling: types.SchedulingInterrupt,
		},
		{
			Name:        "send_whatsapp_message",
			Description: "Sends a WhatsApp message to a specified phone number.",
			Parameters: []byte(`{
				"type": "object",
				"properties": {
					"recipient_phone_number": {"type": "string", "description": "The phone number of the recipient, including the country code."},
					"message_body": {"type": "string", "description": "The content of the message to send."}
				},
				"required": ["recipient_phone_number", "message_body"]
			}`),
			Enabled:    true,
			Scheduling: types.SchedulingInterrupt,
		},
		{
			Name:        "read_whatsapp_chat_history",
			Description: "Reads the most recent chat history from a specific contact on WhatsApp.",
			Parameters: []byte(`{
				"type": "object",
				"properties": {
					"contact_name_or_phone": {"type": "string", "description": "The name or phone number of the contact whose chat history you want to read."},
					"message_count": {"type": "number", "description": "The number of recent messages to retrieve. Defaults to 10."}
				},
				"required": ["contact_name_or_phone"]
			}`),
			Enabled:    true,
			Scheduling: types.SchedulingInterrupt,
		},
		{
			Name:        "search_whatsapp_contact",
			Description: "Searches for a contact in the user's WhatsApp contact list.",
			Parameters: []byte(`{
				"type": "object",
				"properties": {
					"contact_name": {"type": "string", "description": "The name of the contact to search for."}
				},
				"required": ["contact_name"]
			}`),
			Enabled:    true,
			Scheduling: types.SchedulingInterrupt,
		},
		{
			Name:        "list_drive_files",
			Description: "Lists files from the user's Google Drive. Can be filtered by a search query.",
			Parameters: []byte(`{
				"type": "object",
				"properties": {
					"count": {"type": "number", "description": "The maximum number of files to return. Defaults to 10."},
					"query": {"type": "string", "description": "A search query to filter files. For example, \"name contains 'report'\"."}
				}
			}`),
			Enabled:    true,
			Scheduling: types.SchedulingInterrupt,
		},
		{
			Name:        "read_sheet_data",
			Description: "Reads data from a specified range in a Google Sheet.",
			Parameters: []byte(`{
				"type": "object",
				"properties": {
					"spreadsheetId": {"type": "string", "description": "The ID of the Google Sheet to read from."},
					"range": {"type": "string", "description": "The A1 notation of the range to retrieve. For example, \"Sheet1!A1:B5\"."}
				},
				"required": ["spreadsheetId", "range"]
			}`),
			Enabled:    true,
			Scheduling: types.SchedulingInterrupt,
		},
		{
			Name:        "list_calendar_events",
			Description: "Lists upcoming events from the user's primary Google Calendar.",
			Parameters: []byte(`{
				"type": "object",
				"properties": {
					"count": {"type": "number", "description": "The maximum number of events to return. Defaults to 10."}
				}
			}`),
			Enabled:    true,
			Scheduling: types.SchedulingInterrupt,
		},
		{
			Name:        "create_calendar_event",
			Description: "Creates a new event in the user's primary Google Calendar.",
			Parameters: []byte(`{
				"type": "object",
				"properties": {
					"summary": {"type": "string", "description": "The title or summary of the event."},
					"location": {"type": "string", "description": "The location of the event."},
					"description": {"type": "string", "description": "A description of the event."},
					"startDateTime": {"type": "string", "description": "The start time of the event in ISO 8601 format. E.g., \"2024-08-15T10:00:00-07:00\"."},
					"endDateTime": {"type": "string", "description": "The end time of the event in ISO 8601 format. E.g., \"2024-08-15T11:00:00-07:00\"."}
				},
				"required": ["summary", "startDateTime", "endDateTime"]
			}`),
			Enabled:    true,
			Scheduling: types.SchedulingInterrupt,
		},
		{
			Name:        "web_search",
			Description: "Performs a web search to find up-to-date information on recent events, news, or any topic requiring current knowledge from the internet.",
			Parameters: []byte(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The search query or topic to look up on the web."}
				},
				"required": ["query"]
			}`),
			Enabled:    true,
			Scheduling: types.SchedulingInterrupt,
		},
	}
}
