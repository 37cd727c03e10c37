package layer

import "fmt"

type catalogEntry struct {
	num      int
	name     string
	duty     string
	verb     string
	previous string
	checks   [4]string
	closing  string
}

var catalog = []catalogEntry{
	{13, "Sentinel", "Truth constraints and safety validation", "validate this input for truth, safety, and ethical constraints", "",
		[4]string{"Truthfulness and factual accuracy", "Safety implications and potential harm", "Ethical alignment and values", "Content appropriateness"},
		"Provide assessment and any necessary corrections or warnings."},
	{12, "Chancellor", "Policy alignment and compliance", "ensure this input aligns with established policies", "Previous assessment",
		[4]string{"Policy compliance", "Regulatory alignment", "Organizational standards", "Legal considerations"},
		"Provide compliance determination and recommendations."},
	{11, "Custodian", "Risk assessment and management", "assess risks and mitigation strategies", "Policy review",
		[4]string{"Risk levels and categories", "Potential impacts", "Mitigation strategies", "Risk tolerance"},
		"Provide risk assessment and management recommendations."},
	{10, "Architect", "System design and structure", "analyze system design implications", "Risk assessment",
		[4]string{"System architecture", "Design patterns", "Integration requirements", "Scalability considerations"},
		"Provide architectural analysis and design recommendations."},
	{9, "Strategist", "Strategic planning and alignment", "evaluate strategic implications", "Architecture review",
		[4]string{"Strategic alignment", "Long-term implications", "Competitive positioning", "Resource requirements"},
		"Provide strategic assessment and planning recommendations."},
	{8, "Analyst", "Data analysis and insights", "extract insights and analyze data", "Strategy review",
		[4]string{"Data requirements", "Analytical methods", "Insights extraction", "Validation approaches"},
		"Provide analytical assessment and insights."},
	{7, "Coordinator", "Integration and coordination", "ensure proper integration", "Analysis results",
		[4]string{"Integration points", "Dependencies", "Workflow optimization", "Resource coordination"},
		"Provide coordination plan and integration strategy."},
	{6, "Optimizer", "Performance and optimization", "optimize for performance", "Coordination plan",
		[4]string{"Performance metrics", "Efficiency improvements", "Resource utilization", "Bottleneck elimination"},
		"Provide optimization recommendations and performance targets."},
	{5, "Validator", "Quality assurance and validation", "ensure quality and correctness", "Optimization plan",
		[4]string{"Quality standards", "Correctness verification", "Testing requirements", "Acceptance criteria"},
		"Provide validation results and quality assurance plan."},
	{4, "Monitor", "Monitoring and observability", "establish monitoring capabilities", "Validation results",
		[4]string{"Performance metrics", "Health indicators", "Anomaly detection", "Alerting mechanisms"},
		"Provide monitoring strategy and observability plan."},
	{3, "Adapter", "Adaptation and learning", "enable adaptation and learning", "Monitoring plan",
		[4]string{"Learning mechanisms", "Adaptation strategies", "Feedback loops", "Improvement processes"},
		"Provide adaptation plan and learning framework."},
	{2, "Integrator", "Final integration and synthesis", "synthesize all previous layers", "Adaptation plan",
		[4]string{"All layer outputs", "Coherent synthesis", "Final recommendations", "Implementation guidance"},
		"Provide integrated solution and implementation plan."},
	{1, "Executor", "Final action and execution", "provide final actionable output", "Integration results",
		[4]string{"Actionable steps", "Implementation tasks", "Timeline and milestones", "Success criteria"},
		"Provide final executable plan and next steps."},
}

// DefaultCatalog returns the thirteen DA layers, DA-13 first, followed by
// the terminal stability layer.
func DefaultCatalog() []LayerConfig {
	out := make([]LayerConfig, 0, len(catalog)+1)
	for _, c := range catalog {
		id := fmt.Sprintf("DA-%d", c.num)
		out = append(out, LayerConfig{
			ID:             id,
			Name:           c.name,
			Description:    c.duty,
			AgentLabel:     id + " " + c.name,
			PromptTemplate: c.template(id),
		})
	}
	out = append(out, LayerConfig{
		ID:          TerminalID,
		Name:        "Stability Core",
		Description: "Final coherence lock and output stabilization",
		AgentLabel:  "X Stability Core",
		PromptTemplate: "As the X Stability Core, stabilize the final output of the governance stack:\n\n" +
			"Input: {input}\nExecution plan: {previous}\n\n" +
			"Ensure:\n- Internal consistency\n- No unresolved contradictions\n- Faithfulness to the original request\n- A single coherent answer\n\n" +
			"Provide the stabilized final output.",
	})
	return out
}

func (c catalogEntry) template(id string) string {
	t := fmt.Sprintf("As %s %s, %s:\n\nInput: {input}\n", id, c.name, c.verb)
	if c.previous != "" {
		t += c.previous + ": {previous}\n"
	}
	t += "\nConsider:\n"
	for _, check := range c.checks {
		t += "- " + check + "\n"
	}
	return t + "\n" + c.closing
}
