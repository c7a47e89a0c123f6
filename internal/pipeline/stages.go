package pipeline

const researchTaskTemplate = `Carefully analyze the user's question: "{query}"

Your task is to:
1. Understand exactly what the user is asking about
2. Research and gather accurate information about that specific topic
3. Provide detailed insights and facts related to the user's question
4. Focus ONLY on the topic mentioned in the query - do not confuse it with other topics

User's question: {query}`

const writeTaskTemplate = `Using the research insights provided, write a comprehensive answer to the user's question: "{query}"

Requirements:
1. Directly answer the user's specific question
2. Use the research insights to provide accurate information
3. Ensure your answer is about the exact topic the user asked about
4. Write clearly and comprehensively
5. Do not confuse the topic with other unrelated subjects

User's question: {query}`

// QAStages is the question-answering stage set: a researcher gathers facts
// about the query, then a writer turns those facts into the final answer.
// The returned slice is fresh on each call.
func QAStages() []Stage {
	return []Stage{
		{
			Name: "research",
			Agent: Agent{
				Role:      "Research Specialist",
				Goal:      "Accurately research and understand the user's specific question, then provide detailed insights and facts about the topic",
				Backstory: "You are an expert researcher with deep knowledge across many fields. You carefully analyze questions and provide accurate, factual information. You focus on understanding exactly what the user is asking and provide relevant information about that specific topic.",
			},
			Description:    researchTaskTemplate,
			ExpectedOutput: "A detailed research report with accurate facts and insights about the specific topic mentioned in the user's question",
			InputKeys:      []string{"query"},
			OutputKey:      "research",
		},
		{
			Name: "write",
			Agent: Agent{
				Role:      "Technical Writer",
				Goal:      "Write a clear, accurate, and comprehensive answer that directly addresses the user's question",
				Backstory: "You are a skilled technical writer who creates clear, accurate explanations. You take research insights and synthesize them into well-structured answers that directly answer what the user asked. You ensure the answer is relevant to the specific question asked.",
			},
			Description:    writeTaskTemplate,
			ExpectedOutput: "A clear, accurate, and comprehensive answer that directly addresses the user's specific question",
			InputKeys:      []string{"query"},
			ContextFrom:    []string{"research"},
			OutputKey:      "answer",
		},
	}
}
