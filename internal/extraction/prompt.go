package extraction

import "fmt"

// maxOCRContextChars caps how much recognized text is appended to prompts.
// Bills rarely carry more useful text than this, and the image remains the
// primary signal.
const maxOCRContextChars = 2000

// billPagePrompt is the shared prompt used by all providers for one page of
// a bill or invoice.
const billPagePrompt = `You are an expert at extracting structured data from bills and invoices.

Analyze this single page of a bill/invoice and extract ALL line items with their details. Follow these instructions carefully:

1. **Extract ALL line items**: Don't miss any item. Look for:
   - Item names/descriptions
   - Quantities
   - Rates (price per unit)
   - Amounts (total for that line item)

2. **Identify the page sub-total**: If this page prints a running sub-total distinct from the bill's final total, include it. Do NOT invent one.

3. **Identify the bill's final total**: If this page prints the bill's grand total / amount due (usually the last page), include it as actual_bill_total. Leave it null otherwise.

4. **Never sum sub-totals into items**: A sub-total is not a line item. Tax or discount lines that are separate priced entries ARE line items.

5. **Handle edge cases**:
   - Items that span multiple lines
   - Items with discounts (negative amounts are valid)
   - Items with taxes

Return the data in this EXACT JSON format:
{
  "bill_items": [
    {
      "item_name": "Item Name",
      "item_amount": 100.00,
      "item_rate": 50.00,
      "item_quantity": 2
    }
  ],
  "sub_total": 100.00,
  "actual_bill_total": null,
  "extraction_notes": "Any important notes about the extraction"
}

Important:
- Use null for missing values (rate, quantity, sub_total, actual_bill_total)
- Ensure all amounts are numbers (not strings)
- Be precise with decimal values
- If you can't determine a value confidently, use null
- Return ONLY the JSON, no additional text and no markdown code blocks`

// buildPagePrompt appends recognized text as reference context when present.
func buildPagePrompt(ocrText string) string {
	if ocrText == "" {
		return billPagePrompt
	}
	if len(ocrText) > maxOCRContextChars {
		ocrText = ocrText[:maxOCRContextChars]
	}
	return fmt.Sprintf("%s\n\nOCR Text (for reference):\n%s", billPagePrompt, ocrText)
}

// buildTextPrompt builds the text-only fallback prompt used when the vision
// call fails but recognized text is available.
func buildTextPrompt(ocrText string) string {
	return fmt.Sprintf("%s\n\nBill Text:\n%s", billPagePrompt, ocrText)
}
