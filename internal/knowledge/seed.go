package knowledge

// SeedDocument is one entry of the built-in company corpus used when the
// store starts empty.
type SeedDocument struct {
	Content  string
	Metadata map[string]string
}

func SeedDocuments() []SeedDocument {
	return []SeedDocument{
		{
			Content: `Soft Techniques is a software consultancy that helps businesses design, build and operate custom software. The team combines senior engineers, product designers and AI specialists who work as an extension of the client's own team. Soft Techniques has delivered projects for startups and established companies across finance, healthcare, logistics and e-commerce. The company focuses on long-term partnerships rather than one-off deliveries, and every engagement starts with a free consultation to understand the client's goals.`,
			Metadata: map[string]string{"source": "company_overview", "type": "company_document"},
		},
		{
			Content: `Services offered by Soft Techniques include custom web application development, mobile application development for iOS and Android, cloud architecture and migration, API design and integration, and ongoing maintenance and support. Web projects typically use modern frameworks with an emphasis on performance and accessibility. Mobile projects can be native or cross-platform depending on budget and timeline. Cloud work covers AWS, Azure and Google Cloud, including cost optimization reviews for existing deployments.`,
			Metadata: map[string]string{"source": "services", "type": "company_document"},
		},
		{
			Content: `Soft Techniques builds AI-powered solutions such as intelligent chatbots, retrieval-augmented knowledge assistants, document processing pipelines, and predictive analytics dashboards. AI engagements begin with a feasibility assessment to make sure machine learning is actually the right tool for the problem. The team works with both hosted model APIs and self-hosted open models, and advises clients on data privacy, evaluation and cost controls before anything ships to production.`,
			Metadata: map[string]string{"source": "ai_solutions", "type": "company_document"},
		},
		{
			Content: `The engagement process at Soft Techniques has four stages. First, a free consultation call to understand the problem, constraints and success criteria. Second, a discovery phase producing a scoped proposal with timeline and cost estimate. Third, iterative delivery in two-week cycles with a demo at the end of each cycle. Fourth, handover or ongoing support depending on the client's preference. Most projects run between six weeks and six months. Pricing is either fixed-scope for well-defined projects or time-and-materials for evolving ones; an exact quote is prepared during discovery after the initial consultation.`,
			Metadata: map[string]string{"source": "process_and_pricing", "type": "company_document"},
		},
		{
			Content: `To get in touch with Soft Techniques, the fastest path is to schedule a free consultation through the website's scheduling form. Consultations are thirty-minute video calls available on business days. For general questions the team can be reached at ask@softtechniques.com. The company operates remotely with core hours in the US Eastern timezone and serves clients worldwide. Response time for new inquiries is typically one business day.`,
			Metadata: map[string]string{"source": "contact", "type": "company_document"},
		},
		{
			Content: `Frequently asked questions. Do you work with early-stage startups? Yes, including MVP builds scoped to a fixed budget. Do you take over existing codebases? Yes, after a short technical audit that is included in discovery. Do you sign NDAs? Yes, before any detailed discussion of the client's product. Can you work alongside an in-house team? Yes, staff augmentation and joint delivery are both common. What does the free consultation cover? A discussion of your goals, a first read on feasibility, and recommended next steps; there is no obligation to continue afterwards.`,
			Metadata: map[string]string{"source": "faq", "type": "company_document"},
		},
	}
}
