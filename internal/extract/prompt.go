package extract

// extractionPrompt instructs the vision model to return strict JSON with the
// raw field strings exactly as printed on the document. Normalization happens
// on our side so that parse failures are observable instead of silently
// absorbed by the model.
const extractionPrompt = `You are a document parser for receipts, invoices, and bank statements.

Task:
- Read the attached document image or PDF.
- Output STRICT JSON only (no comments, no trailing commas, no extra text).
- Copy field values exactly as printed, including separators and currency marks.

The JSON object must have these fields:
- "document_type": one of "receipt", "invoice", "bank_statement"
- "total_amount": string, the gross total exactly as printed (e.g. "1 234,56")
- "currency": string, ISO 4217 code (e.g. "PLN"), or "" if not printed
- "date": string, the transaction or issue date exactly as printed
- "merchant_name": string, the seller's name exactly as printed
- "vat_amount": string or null, the total VAT exactly as printed
- "tax_id": string or null, the seller's tax identifier
- "invoice_number": string or null
- "line_items": array of {"description": string, "quantity": number, "unit_price": number}, or null
- "confidence": object mapping each field name above to a number in [0,1]

Rules:
- If several dates are printed, use the sale/transaction date and put the
  others nowhere.
- Never invent values; use null when a field is absent.
- Return ONLY valid raw JSON.
- Do NOT wrap the response in code fences.
- Output must begin with "{" and end with "}".`
